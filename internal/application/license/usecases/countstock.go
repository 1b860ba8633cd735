package usecases

import (
	"context"
	"fmt"

	"keymint/internal/domain/license"
	"keymint/internal/shared/logger"
)

// CountStockUseCase answers how many keys are still available for sale
// for a product.
type CountStockUseCase struct {
	keyRepo license.KeyRepository
	logger  logger.Interface
}

func NewCountStockUseCase(keyRepo license.KeyRepository, logger logger.Interface) *CountStockUseCase {
	return &CountStockUseCase{keyRepo: keyRepo, logger: logger}
}

func (uc *CountStockUseCase) Execute(ctx context.Context, productID uint) (int64, error) {
	if productID == 0 {
		return 0, license.ErrMissingProduct
	}

	count, err := uc.keyRepo.CountStock(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to count stock: %w", err)
	}

	uc.logger.Debugw("stock counted", "product_id", productID, "available", count)
	return count, nil
}
