package usecases

import (
	"context"
	"fmt"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/utils"
)

// DeactivateKeyUseCase frees an activation slot. The row stays behind as
// inactive so the instance keeps its limit bypass on reactivation.
type DeactivateKeyUseCase struct {
	keyRepo        license.KeyRepository
	activationRepo license.ActivationRepository
	txManager      TransactionManager
	publisher      EventPublisher
	clock          license.Clock
	logger         logger.Interface
}

func NewDeactivateKeyUseCase(
	keyRepo license.KeyRepository,
	activationRepo license.ActivationRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	clock license.Clock,
	logger logger.Interface,
) *DeactivateKeyUseCase {
	return &DeactivateKeyUseCase{
		keyRepo:        keyRepo,
		activationRepo: activationRepo,
		txManager:      txManager,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
	}
}

func (uc *DeactivateKeyUseCase) Execute(ctx context.Context, req dto.DeactivateKeyRequest) (*dto.ActivationDTO, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	instance := license.SanitizeInstance(req.Instance)
	if instance == "" {
		return nil, license.ErrMissingInstance
	}

	var result *dto.ActivationDTO
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		key, err := uc.keyRepo.FindByCode(txCtx, req.Code)
		if err != nil {
			return fmt.Errorf("failed to load key: %w", err)
		}
		if key == nil {
			return license.ErrKeyNotFound
		}

		now := uc.clock.Now()
		if key.IsExpired(now) {
			return license.ErrKeyExpired
		}

		activation, err := uc.activationRepo.FindByKeyAndInstance(txCtx, key.ID(), instance)
		if err != nil {
			return fmt.Errorf("failed to look up activation: %w", err)
		}
		if activation == nil {
			return license.ErrActivationNotFound
		}

		if activation.IsActive() {
			activation.Deactivate(now)
			if err := uc.activationRepo.Update(txCtx, activation); err != nil {
				return fmt.Errorf("failed to deactivate instance: %w", err)
			}

			count, err := uc.activationRepo.CountActiveByKey(txCtx, key.ID())
			if err != nil {
				return fmt.Errorf("failed to count activations: %w", err)
			}
			key.SetActivationCount(int(count))
			if err := saveKey(txCtx, uc.keyRepo, uc.publisher, uc.logger, key, now); err != nil {
				return err
			}

			event := license.NewActivationEvent(license.EventActivationRevoked, activation, now)
			if err := uc.publisher.Publish(event); err != nil {
				uc.logger.Warnw("failed to publish event", "type", license.EventActivationRevoked, "error", err)
			}
		}

		result = dto.ToActivationDTO(activation)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("key deactivated",
		"code_prefix", truncatedOf(req.Code),
		"instance", instance)
	return result, nil
}
