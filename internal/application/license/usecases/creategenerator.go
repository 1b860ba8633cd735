package usecases

import (
	"context"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	"keymint/internal/shared/config"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/utils"
)

// CreateGeneratorUseCase stores a key-pattern template. An omitted charset
// falls back to the configured default.
type CreateGeneratorUseCase struct {
	generatorRepo license.GeneratorRepository
	policy        config.LicenseConfig
	logger        logger.Interface
}

func NewCreateGeneratorUseCase(
	generatorRepo license.GeneratorRepository,
	policy config.LicenseConfig,
	logger logger.Interface,
) *CreateGeneratorUseCase {
	return &CreateGeneratorUseCase{
		generatorRepo: generatorRepo,
		policy:        policy,
		logger:        logger,
	}
}

func (uc *CreateGeneratorUseCase) Execute(ctx context.Context, req dto.CreateGeneratorRequest) (*dto.GeneratorDTO, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	charset := req.Charset
	if charset == "" {
		charset = uc.policy.DefaultCharset
	}

	generator, err := license.NewGenerator(req.Name, req.Pattern, charset)
	if err != nil {
		return nil, err
	}
	generator.SetValidFor(req.ValidFor)
	generator.SetActivationLimit(req.ActivationLimit)

	if err := uc.generatorRepo.Create(ctx, generator); err != nil {
		return nil, err
	}

	uc.logger.Infow("generator created", "generator_id", generator.ID(), "name", generator.Name())
	return dto.ToGeneratorDTO(generator), nil
}
