package mappers

import (
	"fmt"

	"keymint/internal/domain/license"
	vo "keymint/internal/domain/license/valueobjects"
	"keymint/internal/infrastructure/persistence/models"
)

type ActivationMapper interface {
	ToEntity(model *models.ActivationModel) (*license.Activation, error)
	ToModel(entity *license.Activation) (*models.ActivationModel, error)
	ToEntities(models []*models.ActivationModel) ([]*license.Activation, error)
}

type ActivationMapperImpl struct{}

func NewActivationMapper() ActivationMapper {
	return &ActivationMapperImpl{}
}

func (m *ActivationMapperImpl) ToEntity(model *models.ActivationModel) (*license.Activation, error) {
	if model == nil {
		return nil, nil
	}

	status := vo.ActivationStatus(model.Status)
	if !vo.ValidActivationStatuses[status] {
		return nil, fmt.Errorf("invalid activation status: %s", model.Status)
	}

	entity, err := license.ReconstructActivation(license.ActivationReconstructParams{
		ID:            model.ID,
		KeyID:         model.KeyID,
		Instance:      model.Instance,
		IPAddress:     model.IPAddress,
		UserAgent:     model.UserAgent,
		Status:        status,
		ActivatedAt:   model.ActivatedAt,
		DeactivatedAt: model.DeactivatedAt,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct activation entity: %w", err)
	}

	return entity, nil
}

func (m *ActivationMapperImpl) ToModel(entity *license.Activation) (*models.ActivationModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.ActivationModel{
		ID:            entity.ID(),
		KeyID:         entity.KeyID(),
		Instance:      entity.Instance(),
		IPAddress:     entity.IPAddress(),
		UserAgent:     entity.UserAgent(),
		Status:        string(entity.Status()),
		ActivatedAt:   entity.ActivatedAt(),
		DeactivatedAt: entity.DeactivatedAt(),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}, nil
}

func (m *ActivationMapperImpl) ToEntities(activationModels []*models.ActivationModel) ([]*license.Activation, error) {
	if activationModels == nil {
		return nil, nil
	}

	entities := make([]*license.Activation, 0, len(activationModels))
	for _, am := range activationModels {
		entity, err := m.ToEntity(am)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
