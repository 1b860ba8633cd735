package usecases

import (
	"context"
	"fmt"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	"keymint/internal/shared/constants"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/query"
	"keymint/internal/shared/utils"
)

// ListKeysUseCase pages through keys with the typed filter vocabulary.
type ListKeysUseCase struct {
	keyRepo license.KeyRepository
	logger  logger.Interface
}

func NewListKeysUseCase(keyRepo license.KeyRepository, logger logger.Interface) *ListKeysUseCase {
	return &ListKeysUseCase{keyRepo: keyRepo, logger: logger}
}

// ListKeysResult carries one page plus the unpaged total.
type ListKeysResult struct {
	Keys  []*dto.KeyDTO
	Total int64
	Page  int
	Limit int
}

func (uc *ListKeysUseCase) Execute(ctx context.Context, req dto.ListKeysRequest) (*ListKeysResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	filter := buildKeyFilter(req)

	keys, err := uc.keyRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	total, err := uc.keyRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count keys: %w", err)
	}

	return &ListKeysResult{
		Keys:  dto.ToKeyDTOList(keys),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ListIDs returns bare key IDs for the same filter, skipping hydration.
func (uc *ListKeysUseCase) ListIDs(ctx context.Context, req dto.ListKeysRequest) ([]uint, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	filter := buildKeyFilter(req)
	filter.IDsOnly = true

	ids, err := uc.keyRepo.ListIDs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list key ids: %w", err)
	}
	return ids, nil
}

func buildKeyFilter(req dto.ListKeysRequest) *query.Filter {
	filter := &query.Filter{
		Search:  req.Search,
		OrderBy: req.OrderBy,
		Order:   req.Order,
		Page:    req.Page,
		Limit:   req.Limit,
	}
	if filter.Page <= 0 {
		filter.Page = constants.DefaultPage
	}
	if filter.Limit <= 0 {
		filter.Limit = constants.DefaultPageSize
	}

	if req.ProductID != 0 {
		filter.Where(query.Eq("product_id", req.ProductID))
	}
	if req.OrderID != 0 {
		filter.Where(query.Eq("order_id", req.OrderID))
	}
	if req.CustomerID != 0 {
		filter.Where(query.Eq("customer_id", req.CustomerID))
	}
	if req.Status != "" {
		filter.Where(query.Eq("status", req.Status))
	}
	return filter
}
