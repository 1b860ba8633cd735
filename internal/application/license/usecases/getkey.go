package usecases

import (
	"context"
	"fmt"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	"keymint/internal/shared/logger"
)

// GetKeyUseCase loads a single key with its activations attached.
type GetKeyUseCase struct {
	keyRepo        license.KeyRepository
	activationRepo license.ActivationRepository
	logger         logger.Interface
}

func NewGetKeyUseCase(
	keyRepo license.KeyRepository,
	activationRepo license.ActivationRepository,
	logger logger.Interface,
) *GetKeyUseCase {
	return &GetKeyUseCase{
		keyRepo:        keyRepo,
		activationRepo: activationRepo,
		logger:         logger,
	}
}

func (uc *GetKeyUseCase) ByID(ctx context.Context, id uint) (*dto.KeyDTO, error) {
	key, err := uc.keyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load key: %w", err)
	}
	return uc.hydrate(ctx, key)
}

func (uc *GetKeyUseCase) ByCode(ctx context.Context, code string) (*dto.KeyDTO, error) {
	key, err := uc.keyRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load key: %w", err)
	}
	return uc.hydrate(ctx, key)
}

func (uc *GetKeyUseCase) ByUUID(ctx context.Context, uuid string) (*dto.KeyDTO, error) {
	key, err := uc.keyRepo.FindByUUID(ctx, uuid)
	if err != nil {
		return nil, fmt.Errorf("failed to load key: %w", err)
	}
	return uc.hydrate(ctx, key)
}

func (uc *GetKeyUseCase) hydrate(ctx context.Context, key *license.Key) (*dto.KeyDTO, error) {
	if key == nil {
		return nil, license.ErrKeyNotFound
	}

	activations, err := uc.activationRepo.ListByKey(ctx, key.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load activations: %w", err)
	}
	key.AttachActivations(activations)

	active := 0
	for _, a := range activations {
		if a.IsActive() {
			active++
		}
	}
	key.SetActivationCount(active)

	result := dto.ToKeyDTO(key)
	result.Activations = dto.ToActivationDTOList(activations)
	return result, nil
}
