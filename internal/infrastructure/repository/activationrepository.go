package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"keymint/internal/domain/license"
	"keymint/internal/infrastructure/cache"
	"keymint/internal/infrastructure/persistence/mappers"
	"keymint/internal/infrastructure/persistence/models"
	"keymint/internal/shared/biztime"
	"keymint/internal/shared/db"
	apperrors "keymint/internal/shared/errors"
	"keymint/internal/shared/logger"
)

type ActivationRepositoryImpl struct {
	db         *gorm.DB
	mapper     mappers.ActivationMapper
	queryCache cache.QueryCache
	logger     logger.Interface
}

func NewActivationRepository(
	db *gorm.DB,
	queryCache cache.QueryCache,
	logger logger.Interface,
) license.ActivationRepository {
	return &ActivationRepositoryImpl{
		db:         db,
		mapper:     mappers.NewActivationMapper(),
		queryCache: queryCache,
		logger:     logger,
	}
}

func (r *ActivationRepositoryImpl) Create(ctx context.Context, activation *license.Activation) error {
	activation.TouchCreated(biztime.NowUTC())

	model, err := r.mapper.ToModel(activation)
	if err != nil {
		return fmt.Errorf("failed to map activation entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return license.ErrDuplicateActivation
		}
		r.logger.Errorw("failed to create activation in database", "key_id", model.KeyID, "error", err)
		return fmt.Errorf("failed to create activation: %w", err)
	}
	activation.SetID(model.ID)
	activation.MarkClean()

	r.bump(ctx)
	r.logger.Debugw("activation created", "id", model.ID, "key_id", model.KeyID, "instance", model.Instance)
	return nil
}

func (r *ActivationRepositoryImpl) Update(ctx context.Context, activation *license.Activation) error {
	if activation.ID() == 0 {
		return license.ErrActivationNotFound
	}

	cols := activation.Dirty()
	if len(cols) == 0 {
		return nil
	}

	activation.TouchUpdated(biztime.NowUTC())

	model, err := r.mapper.ToModel(activation)
	if err != nil {
		return fmt.Errorf("failed to map activation entity: %w", err)
	}

	cols = append(cols, "updated_at")
	err = db.GetTxFromContext(ctx, r.db).
		Model(&models.ActivationModel{}).
		Where("id = ?", activation.ID()).
		Select(cols).
		Updates(model).Error
	if err != nil {
		r.logger.Errorw("failed to update activation in database", "id", activation.ID(), "error", err)
		return fmt.Errorf("failed to update activation: %w", err)
	}
	activation.MarkClean()

	r.bump(ctx)
	return nil
}

func (r *ActivationRepositoryImpl) DeleteByKeyID(ctx context.Context, keyID uint) error {
	err := db.GetTxFromContext(ctx, r.db).
		Where("key_id = ?", keyID).
		Delete(&models.ActivationModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete activations: %w", err)
	}

	r.bump(ctx)
	return nil
}

func (r *ActivationRepositoryImpl) FindByKeyAndInstance(ctx context.Context, keyID uint, instance string) (*license.Activation, error) {
	var model models.ActivationModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("key_id = ? AND instance = ?", keyID, instance).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get activation", "key_id", keyID, "error", err)
		return nil, fmt.Errorf("failed to get activation: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		return nil, fmt.Errorf("failed to map activation: %w", err)
	}
	return entity, nil
}

func (r *ActivationRepositoryImpl) ListByKey(ctx context.Context, keyID uint) ([]*license.Activation, error) {
	var activationModels []*models.ActivationModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("key_id = ?", keyID).
		Order("id ASC").
		Find(&activationModels).Error
	if err != nil {
		r.logger.Errorw("failed to list activations", "key_id", keyID, "error", err)
		return nil, fmt.Errorf("failed to list activations: %w", err)
	}

	entities, err := r.mapper.ToEntities(activationModels)
	if err != nil {
		return nil, fmt.Errorf("failed to map activations: %w", err)
	}
	return entities, nil
}

func (r *ActivationRepositoryImpl) CountActiveByKey(ctx context.Context, keyID uint) (int64, error) {
	var count int64
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.ActivationModel{}).
		Scopes(db.ActiveOnly()).
		Where("key_id = ?", keyID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active activations: %w", err)
	}
	return count, nil
}

func (r *ActivationRepositoryImpl) bump(ctx context.Context) {
	if err := r.queryCache.Bump(ctx, cache.GroupActivations); err != nil {
		r.logger.Warnw("failed to bump activation cache stamp", "error", err)
	}
}
