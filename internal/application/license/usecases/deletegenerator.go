package usecases

import (
	"context"
	"fmt"

	"keymint/internal/domain/license"
	"keymint/internal/shared/logger"
)

// DeleteGeneratorUseCase removes a template. Keys already generated from
// it are untouched.
type DeleteGeneratorUseCase struct {
	generatorRepo license.GeneratorRepository
	logger        logger.Interface
}

func NewDeleteGeneratorUseCase(generatorRepo license.GeneratorRepository, logger logger.Interface) *DeleteGeneratorUseCase {
	return &DeleteGeneratorUseCase{generatorRepo: generatorRepo, logger: logger}
}

func (uc *DeleteGeneratorUseCase) Execute(ctx context.Context, id uint) error {
	if id == 0 {
		return license.ErrGeneratorNotFound
	}

	generator, err := uc.generatorRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load generator: %w", err)
	}
	if generator == nil {
		return license.ErrGeneratorNotFound
	}

	if err := uc.generatorRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete generator: %w", err)
	}

	uc.logger.Infow("generator deleted", "generator_id", id)
	return nil
}
