package usecases

import (
	"context"
	"fmt"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	"keymint/internal/shared/constants"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/query"
	"keymint/internal/shared/utils"
)

// ListGeneratorsUseCase pages through templates.
type ListGeneratorsUseCase struct {
	generatorRepo license.GeneratorRepository
	logger        logger.Interface
}

func NewListGeneratorsUseCase(generatorRepo license.GeneratorRepository, logger logger.Interface) *ListGeneratorsUseCase {
	return &ListGeneratorsUseCase{generatorRepo: generatorRepo, logger: logger}
}

func (uc *ListGeneratorsUseCase) Execute(ctx context.Context, req dto.ListGeneratorsRequest) ([]*dto.GeneratorDTO, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	filter := &query.Filter{
		Search:  req.Search,
		OrderBy: req.OrderBy,
		Order:   req.Order,
		Page:    req.Page,
		Limit:   req.Limit,
	}
	if filter.Page <= 0 {
		filter.Page = constants.DefaultPage
	}
	if filter.Limit <= 0 {
		filter.Limit = constants.DefaultPageSize
	}

	generators, err := uc.generatorRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list generators: %w", err)
	}

	dtos := make([]*dto.GeneratorDTO, 0, len(generators))
	for _, g := range generators {
		dtos = append(dtos, dto.ToGeneratorDTO(g))
	}
	return dtos, nil
}

// Get loads a single template.
func (uc *ListGeneratorsUseCase) Get(ctx context.Context, id uint) (*dto.GeneratorDTO, error) {
	generator, err := uc.generatorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load generator: %w", err)
	}
	if generator == nil {
		return nil, license.ErrGeneratorNotFound
	}
	return dto.ToGeneratorDTO(generator), nil
}
