package usecases

import (
	"context"
	"fmt"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	vo "keymint/internal/domain/license/valueobjects"
	"keymint/internal/shared/config"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/utils"
)

// CreateKeyUseCase inserts one key with a caller-supplied code, the admin
// and import path as opposed to batch generation.
type CreateKeyUseCase struct {
	keyRepo   license.KeyRepository
	txManager TransactionManager
	publisher EventPublisher
	clock     license.Clock
	policy    config.LicenseConfig
	logger    logger.Interface
}

func NewCreateKeyUseCase(
	keyRepo license.KeyRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	clock license.Clock,
	policy config.LicenseConfig,
	logger logger.Interface,
) *CreateKeyUseCase {
	return &CreateKeyUseCase{
		keyRepo:   keyRepo,
		txManager: txManager,
		publisher: publisher,
		clock:     clock,
		policy:    policy,
		logger:    logger,
	}
}

func (uc *CreateKeyUseCase) Execute(ctx context.Context, req dto.CreateKeyRequest) (*dto.KeyDTO, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var result *dto.KeyDTO
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if !uc.policy.AllowDuplicates {
			count, err := uc.keyRepo.CountByCode(txCtx, req.Code, 0)
			if err != nil {
				return fmt.Errorf("failed to check code uniqueness: %w", err)
			}
			if count > 0 {
				return license.ErrDuplicateCode
			}
		}

		key, err := license.NewKey(req.Code, req.ProductID)
		if err != nil {
			return err
		}
		now := uc.clock.Now()

		key.SetValidFor(req.ValidFor)
		key.SetActivationLimit(req.ActivationLimit)
		if req.ExpiresAt != nil {
			key.SetExpiresAt(req.ExpiresAt)
		}
		if req.Source != "" {
			key.SetSource(vo.KeySource(req.Source))
		} else {
			key.SetSource(vo.SourcePreset)
		}
		key.Normalize(now)

		if err := uc.keyRepo.Create(txCtx, key); err != nil {
			return err
		}

		event := license.NewKeyEvent(license.EventKeyCreated, key, now)
		if err := uc.publisher.Publish(event); err != nil {
			uc.logger.Warnw("failed to publish event", "type", license.EventKeyCreated, "error", err)
		}

		result = dto.ToKeyDTO(key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("key created",
		"key_id", result.ID,
		"code_prefix", truncatedOf(req.Code),
		"product_id", req.ProductID)
	return result, nil
}
