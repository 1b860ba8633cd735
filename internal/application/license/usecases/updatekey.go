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

// UpdateKeyUseCase patches mutable key fields. Only fields present in the
// request are touched; the dirty set keeps the write narrow.
type UpdateKeyUseCase struct {
	keyRepo   license.KeyRepository
	txManager TransactionManager
	publisher EventPublisher
	clock     license.Clock
	policy    config.LicenseConfig
	logger    logger.Interface
}

func NewUpdateKeyUseCase(
	keyRepo license.KeyRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	clock license.Clock,
	policy config.LicenseConfig,
	logger logger.Interface,
) *UpdateKeyUseCase {
	return &UpdateKeyUseCase{
		keyRepo:   keyRepo,
		txManager: txManager,
		publisher: publisher,
		clock:     clock,
		policy:    policy,
		logger:    logger,
	}
}

func (uc *UpdateKeyUseCase) Execute(ctx context.Context, id uint, req dto.UpdateKeyRequest) (*dto.KeyDTO, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, license.ErrKeyNotFound
	}

	var result *dto.KeyDTO
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		key, err := uc.keyRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load key: %w", err)
		}
		if key == nil {
			return license.ErrKeyNotFound
		}

		if req.Code != nil && *req.Code != key.Code() {
			if !uc.policy.AllowDuplicates {
				count, err := uc.keyRepo.CountByCode(txCtx, *req.Code, key.ID())
				if err != nil {
					return fmt.Errorf("failed to check code uniqueness: %w", err)
				}
				if count > 0 {
					return license.ErrDuplicateCode
				}
			}
			if err := key.SetCode(*req.Code); err != nil {
				return err
			}
		}
		if req.ValidFor != nil {
			key.SetValidFor(*req.ValidFor)
		}
		if req.ActivationLimit != nil {
			key.SetActivationLimit(*req.ActivationLimit)
		}
		if req.ExpiresAt != nil {
			key.SetExpiresAt(req.ExpiresAt)
		}
		if req.Status != nil {
			target := vo.KeyStatus(*req.Status)
			if target != key.Status() {
				if !key.Status().CanTransitionTo(target) {
					return license.ErrInvalidStatusTransition
				}
				key.SetStatus(target)
			}
		}

		now := uc.clock.Now()
		key.Normalize(now)

		if err := saveKey(txCtx, uc.keyRepo, uc.publisher, uc.logger, key, now); err != nil {
			return err
		}

		event := license.NewKeyEvent(license.EventKeyUpdated, key, now)
		if err := uc.publisher.Publish(event); err != nil {
			uc.logger.Warnw("failed to publish event", "type", license.EventKeyUpdated, "error", err)
		}

		result = dto.ToKeyDTO(key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("key updated", "key_id", id)
	return result, nil
}
