package usecases

import (
	"context"
	"fmt"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/utils"
)

// UpdateGeneratorUseCase patches a stored template.
type UpdateGeneratorUseCase struct {
	generatorRepo license.GeneratorRepository
	logger        logger.Interface
}

func NewUpdateGeneratorUseCase(generatorRepo license.GeneratorRepository, logger logger.Interface) *UpdateGeneratorUseCase {
	return &UpdateGeneratorUseCase{generatorRepo: generatorRepo, logger: logger}
}

func (uc *UpdateGeneratorUseCase) Execute(ctx context.Context, id uint, req dto.UpdateGeneratorRequest) (*dto.GeneratorDTO, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, license.ErrGeneratorNotFound
	}

	generator, err := uc.generatorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load generator: %w", err)
	}
	if generator == nil {
		return nil, license.ErrGeneratorNotFound
	}

	if req.Name != nil {
		if err := generator.SetName(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Pattern != nil {
		if err := generator.SetPattern(*req.Pattern); err != nil {
			return nil, err
		}
	}
	if req.Charset != nil {
		if err := generator.SetCharset(*req.Charset); err != nil {
			return nil, err
		}
	}
	if req.ValidFor != nil {
		generator.SetValidFor(*req.ValidFor)
	}
	if req.ActivationLimit != nil {
		generator.SetActivationLimit(*req.ActivationLimit)
	}

	if err := uc.generatorRepo.Update(ctx, generator); err != nil {
		return nil, err
	}

	uc.logger.Infow("generator updated", "generator_id", id)
	return dto.ToGeneratorDTO(generator), nil
}
