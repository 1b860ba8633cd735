package usecases

import (
	"context"
	"fmt"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	"keymint/internal/shared/logger"
)

// DeleteKeyUseCase removes a key together with its metadata and
// activations.
type DeleteKeyUseCase struct {
	keyRepo   license.KeyRepository
	txManager TransactionManager
	publisher EventPublisher
	clock     license.Clock
	logger    logger.Interface
}

func NewDeleteKeyUseCase(
	keyRepo license.KeyRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	clock license.Clock,
	logger logger.Interface,
) *DeleteKeyUseCase {
	return &DeleteKeyUseCase{
		keyRepo:   keyRepo,
		txManager: txManager,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

func (uc *DeleteKeyUseCase) Execute(ctx context.Context, id uint) error {
	if id == 0 {
		return license.ErrKeyNotFound
	}

	var deleted *dto.KeyDTO
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		key, err := uc.keyRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load key: %w", err)
		}
		if key == nil {
			return license.ErrKeyNotFound
		}

		if err := uc.keyRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}

		event := license.NewKeyEvent(license.EventKeyDeleted, key, uc.clock.Now())
		if err := uc.publisher.Publish(event); err != nil {
			uc.logger.Warnw("failed to publish event", "type", license.EventKeyDeleted, "error", err)
		}

		deleted = dto.ToKeyDTO(key)
		return nil
	})
	if err != nil {
		return err
	}

	uc.logger.Infow("key deleted", "key_id", deleted.ID, "product_id", deleted.ProductID)
	return nil
}
