package mappers

import (
	"fmt"

	"keymint/internal/domain/license"
	vo "keymint/internal/domain/license/valueobjects"
	"keymint/internal/infrastructure/persistence/models"
)

type KeyMapper interface {
	ToEntity(model *models.KeyModel, meta map[string]string) (*license.Key, error)
	ToModel(entity *license.Key) (*models.KeyModel, error)
	ToEntities(models []*models.KeyModel, metaByKey map[uint]map[string]string) ([]*license.Key, error)
}

type KeyMapperImpl struct{}

func NewKeyMapper() KeyMapper {
	return &KeyMapperImpl{}
}

func (m *KeyMapperImpl) ToEntity(model *models.KeyModel, meta map[string]string) (*license.Key, error) {
	if model == nil {
		return nil, nil
	}

	status := vo.KeyStatus(model.Status)
	if !vo.ValidKeyStatuses[status] {
		return nil, fmt.Errorf("invalid key status: %s", model.Status)
	}

	source := vo.KeySource(model.Source)
	if source != vo.SourceAutomatic && source != vo.SourcePreset {
		source = vo.SourceAutomatic
	}

	entity, err := license.ReconstructKey(license.KeyReconstructParams{
		ID:              model.ID,
		UUID:            model.UUID,
		Code:            model.Code,
		TruncatedKey:    model.TruncatedKey,
		ProductID:       model.ProductID,
		OrderID:         model.OrderID,
		OrderItemID:     model.OrderItemID,
		SubscriptionID:  model.SubscriptionID,
		VendorID:        model.VendorID,
		CustomerID:      model.CustomerID,
		Price:           model.Price,
		Source:          source,
		Status:          status,
		ValidFor:        model.ValidFor,
		ActivationLimit: model.ActivationLimit,
		OrderedAt:       model.OrderedAt,
		ExpiresAt:       model.ExpiresAt,
		ActivatedAt:     model.ActivatedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
		Meta:            meta,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct key entity: %w", err)
	}

	return entity, nil
}

func (m *KeyMapperImpl) ToModel(entity *license.Key) (*models.KeyModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.KeyModel{
		ID:              entity.ID(),
		UUID:            entity.UUID(),
		Code:            entity.Code(),
		TruncatedKey:    entity.TruncatedKey(),
		ProductID:       entity.ProductID(),
		OrderID:         entity.OrderID(),
		OrderItemID:     entity.OrderItemID(),
		SubscriptionID:  entity.SubscriptionID(),
		VendorID:        entity.VendorID(),
		CustomerID:      entity.CustomerID(),
		Price:           entity.Price(),
		Source:          string(entity.Source()),
		Status:          string(entity.Status()),
		ValidFor:        entity.ValidFor(),
		ActivationLimit: entity.ActivationLimit(),
		OrderedAt:       entity.OrderedAt(),
		ExpiresAt:       entity.ExpiresAt(),
		ActivatedAt:     entity.ActivatedAt(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}, nil
}

func (m *KeyMapperImpl) ToEntities(keyModels []*models.KeyModel, metaByKey map[uint]map[string]string) ([]*license.Key, error) {
	if keyModels == nil {
		return nil, nil
	}

	entities := make([]*license.Key, 0, len(keyModels))
	for _, km := range keyModels {
		entity, err := m.ToEntity(km, metaByKey[km.ID])
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
