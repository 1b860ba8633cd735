package usecases

import (
	"context"
	"fmt"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/utils"
)

// ValidateKeyUseCase answers whether a key is usable without touching any
// state. It reports the effective status so a stored status that lapsed
// since the last write still reads as expired.
type ValidateKeyUseCase struct {
	keyRepo        license.KeyRepository
	activationRepo license.ActivationRepository
	clock          license.Clock
	logger         logger.Interface
}

func NewValidateKeyUseCase(
	keyRepo license.KeyRepository,
	activationRepo license.ActivationRepository,
	clock license.Clock,
	logger logger.Interface,
) *ValidateKeyUseCase {
	return &ValidateKeyUseCase{
		keyRepo:        keyRepo,
		activationRepo: activationRepo,
		clock:          clock,
		logger:         logger,
	}
}

// ValidateKeyResult is a read-only snapshot of the key's usability.
type ValidateKeyResult struct {
	Key             *dto.KeyDTO
	EffectiveStatus string
	Valid           bool
	Expired         bool
	ActivationsLeft int
}

func (uc *ValidateKeyUseCase) Execute(ctx context.Context, req dto.ValidateKeyRequest) (*ValidateKeyResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	key, err := uc.keyRepo.FindByCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to load key: %w", err)
	}
	if key == nil {
		return nil, license.ErrKeyNotFound
	}

	count, err := uc.activationRepo.CountActiveByKey(ctx, key.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to count activations: %w", err)
	}
	key.SetActivationCount(int(count))

	orderEmail, _ := key.Meta(license.MetaOrderEmail)

	now := uc.clock.Now()
	effective := key.EffectiveStatus(now)

	result := &ValidateKeyResult{
		Key:             dto.ToKeyDTO(key),
		EffectiveStatus: effective.String(),
		Valid:           key.IsValid(req.Email, orderEmail, req.ProductID),
		Expired:         key.IsExpired(now),
		ActivationsLeft: activationsLeft(key),
	}

	uc.logger.Debugw("key validated",
		"code_prefix", truncatedOf(req.Code),
		"effective_status", effective.String(),
		"valid", result.Valid)
	return result, nil
}

// activationsLeft reports remaining slots, -1 when unlimited.
func activationsLeft(key *license.Key) int {
	if key.ActivationLimit() <= 0 {
		return -1
	}
	left := key.ActivationLimit() - key.ActivationCount()
	if left < 0 {
		return 0
	}
	return left
}
