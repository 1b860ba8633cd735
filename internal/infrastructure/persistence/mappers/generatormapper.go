package mappers

import (
	"fmt"

	"keymint/internal/domain/license"
	vo "keymint/internal/domain/license/valueobjects"
	"keymint/internal/infrastructure/persistence/models"
)

type GeneratorMapper interface {
	ToEntity(model *models.GeneratorModel) (*license.Generator, error)
	ToModel(entity *license.Generator) (*models.GeneratorModel, error)
	ToEntities(models []*models.GeneratorModel) ([]*license.Generator, error)
}

type GeneratorMapperImpl struct{}

func NewGeneratorMapper() GeneratorMapper {
	return &GeneratorMapperImpl{}
}

func (m *GeneratorMapperImpl) ToEntity(model *models.GeneratorModel) (*license.Generator, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := license.ReconstructGenerator(license.GeneratorReconstructParams{
		ID:              model.ID,
		Name:            model.Name,
		Pattern:         model.Pattern,
		Charset:         model.Charset,
		ValidFor:        model.ValidFor,
		ActivationLimit: model.ActivationLimit,
		Status:          vo.GeneratorStatus(model.Status),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct generator entity: %w", err)
	}

	return entity, nil
}

func (m *GeneratorMapperImpl) ToModel(entity *license.Generator) (*models.GeneratorModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.GeneratorModel{
		ID:              entity.ID(),
		Name:            entity.Name(),
		Pattern:         entity.Pattern(),
		Charset:         entity.Charset(),
		ValidFor:        entity.ValidFor(),
		ActivationLimit: entity.ActivationLimit(),
		Status:          string(entity.Status()),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}, nil
}

func (m *GeneratorMapperImpl) ToEntities(generatorModels []*models.GeneratorModel) ([]*license.Generator, error) {
	if generatorModels == nil {
		return nil, nil
	}

	entities := make([]*license.Generator, 0, len(generatorModels))
	for _, gm := range generatorModels {
		entity, err := m.ToEntity(gm)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
