package usecases

import (
	"context"
	"fmt"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	"keymint/internal/domain/shared/events"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/utils"
)

// ActivateKeyUseCase consumes one activation slot for an instance. The
// checks run in a fixed order so callers get stable error kinds: product
// match, email match, expiry, instance presence, then the limit. A known
// instance bypasses the limit check entirely and the whole operation is
// idempotent per (key, instance).
type ActivateKeyUseCase struct {
	keyRepo        license.KeyRepository
	activationRepo license.ActivationRepository
	txManager      TransactionManager
	publisher      EventPublisher
	clock          license.Clock
	logger         logger.Interface
}

func NewActivateKeyUseCase(
	keyRepo license.KeyRepository,
	activationRepo license.ActivationRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	clock license.Clock,
	logger logger.Interface,
) *ActivateKeyUseCase {
	return &ActivateKeyUseCase{
		keyRepo:        keyRepo,
		activationRepo: activationRepo,
		txManager:      txManager,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
	}
}

// ActivateKeyResult reports the state after activation. Reused is true
// when the instance was already active and nothing changed.
type ActivateKeyResult struct {
	Key        *dto.KeyDTO
	Activation *dto.ActivationDTO
	Reused     bool
}

func (uc *ActivateKeyUseCase) Execute(ctx context.Context, req dto.ActivateKeyRequest) (*ActivateKeyResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	instance := license.SanitizeInstance(req.Instance)

	var result *ActivateKeyResult
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		key, err := uc.keyRepo.FindByCodeForUpdate(txCtx, req.Code)
		if err != nil {
			return fmt.Errorf("failed to load key: %w", err)
		}
		if key == nil {
			return license.ErrKeyNotFound
		}

		now := uc.clock.Now()

		if req.ProductID != 0 && req.ProductID != key.ProductID() {
			return license.ErrInvalidProduct
		}
		if req.Email != "" && !key.IsValid(req.Email, uc.orderEmail(txCtx, key), req.ProductID) {
			return license.ErrInvalidEmail
		}
		if key.IsExpired(now) {
			return license.ErrKeyExpired
		}
		if instance == "" {
			return license.ErrMissingInstance
		}

		existing, err := uc.activationRepo.FindByKeyAndInstance(txCtx, key.ID(), instance)
		if err != nil {
			return fmt.Errorf("failed to look up activation: %w", err)
		}

		// The count is re-read under the row lock because hydration does
		// not populate it. A known instance never re-consumes a slot, so
		// the limit only applies to first-time instances.
		active, err := uc.activationRepo.CountActiveByKey(txCtx, key.ID())
		if err != nil {
			return fmt.Errorf("failed to count activations: %w", err)
		}
		key.SetActivationCount(int(active))
		if existing == nil && key.IsAtLimit() {
			return license.ErrNoActivationsLeft
		}

		var activation *license.Activation
		reused := false

		switch {
		case existing != nil && existing.IsActive():
			activation = existing
			reused = true
		case existing != nil:
			existing.Reactivate(req.IPAddress, req.UserAgent, now)
			if err := uc.activationRepo.Update(txCtx, existing); err != nil {
				return fmt.Errorf("failed to reactivate instance: %w", err)
			}
			activation = existing
		default:
			activation, err = license.NewActivation(key.ID(), instance, req.IPAddress, req.UserAgent, now)
			if err != nil {
				return err
			}
			if err := uc.activationRepo.Create(txCtx, activation); err != nil {
				return err
			}
		}

		if !reused {
			count, err := uc.activationRepo.CountActiveByKey(txCtx, key.ID())
			if err != nil {
				return fmt.Errorf("failed to count activations: %w", err)
			}
			key.SetActivationCount(int(count))
			key.MarkActivated(now)

			if err := saveKey(txCtx, uc.keyRepo, uc.publisher, uc.logger, key, now); err != nil {
				return err
			}

			uc.publish(license.NewActivationEvent(license.EventActivationCreated, activation, now))
		}

		result = &ActivateKeyResult{
			Key:        dto.ToKeyDTO(key),
			Activation: dto.ToActivationDTO(activation),
			Reused:     reused,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("key activated",
		"code_prefix", truncatedOf(req.Code),
		"instance", instance,
		"reused", result.Reused)
	return result, nil
}

// orderEmail resolves the billing email bound to the key's order. The core
// stores no order rows, so the email travels in key metadata written at
// assignment time.
func (uc *ActivateKeyUseCase) orderEmail(_ context.Context, key *license.Key) string {
	email, _ := key.Meta(license.MetaOrderEmail)
	return email
}

func (uc *ActivateKeyUseCase) publish(event events.DomainEvent) {
	if err := uc.publisher.Publish(event); err != nil {
		uc.logger.Warnw("failed to publish event", "type", event.GetEventType(), "error", err)
	}
}

func truncatedOf(code string) string {
	if len(code) <= 7 {
		return code
	}
	return code[:7]
}
