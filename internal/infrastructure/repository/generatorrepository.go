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
	"keymint/internal/shared/logger"
	"keymint/internal/shared/query"
)

var allowedGeneratorSortByFields = map[string]bool{
	"id":         true,
	"name":       true,
	"status":     true,
	"created_at": true,
	"updated_at": true,
}

var generatorSearchColumns = []string{"name", "pattern"}

type GeneratorRepositoryImpl struct {
	db         *gorm.DB
	mapper     mappers.GeneratorMapper
	queryCache cache.QueryCache
	logger     logger.Interface
}

func NewGeneratorRepository(
	db *gorm.DB,
	queryCache cache.QueryCache,
	logger logger.Interface,
) license.GeneratorRepository {
	return &GeneratorRepositoryImpl{
		db:         db,
		mapper:     mappers.NewGeneratorMapper(),
		queryCache: queryCache,
		logger:     logger,
	}
}

func (r *GeneratorRepositoryImpl) Create(ctx context.Context, generator *license.Generator) error {
	generator.TouchCreated(biztime.NowUTC())

	model, err := r.mapper.ToModel(generator)
	if err != nil {
		return fmt.Errorf("failed to map generator entity: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create generator in database", "error", err)
		return fmt.Errorf("failed to create generator: %w", err)
	}
	generator.SetID(model.ID)
	generator.MarkClean()

	r.bump(ctx)
	return nil
}

func (r *GeneratorRepositoryImpl) Update(ctx context.Context, generator *license.Generator) error {
	if generator.ID() == 0 {
		return license.ErrGeneratorNotFound
	}

	cols := generator.Dirty()
	if len(cols) == 0 {
		return nil
	}

	generator.TouchUpdated(biztime.NowUTC())

	model, err := r.mapper.ToModel(generator)
	if err != nil {
		return fmt.Errorf("failed to map generator entity: %w", err)
	}

	cols = append(cols, "updated_at")
	err = db.GetTxFromContext(ctx, r.db).
		Model(&models.GeneratorModel{}).
		Where("id = ?", generator.ID()).
		Select(cols).
		Updates(model).Error
	if err != nil {
		r.logger.Errorw("failed to update generator in database", "id", generator.ID(), "error", err)
		return fmt.Errorf("failed to update generator: %w", err)
	}
	generator.MarkClean()

	r.bump(ctx)
	return nil
}

func (r *GeneratorRepositoryImpl) Delete(ctx context.Context, id uint) error {
	if err := db.GetTxFromContext(ctx, r.db).Delete(&models.GeneratorModel{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete generator: %w", err)
	}

	r.bump(ctx)
	return nil
}

func (r *GeneratorRepositoryImpl) FindByID(ctx context.Context, id uint) (*license.Generator, error) {
	var model models.GeneratorModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get generator", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get generator: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		return nil, fmt.Errorf("failed to map generator: %w", err)
	}
	return entity, nil
}

func (r *GeneratorRepositoryImpl) List(ctx context.Context, filter *query.Filter) ([]*license.Generator, error) {
	tx := db.GetTxFromContext(ctx, r.db).Model(&models.GeneratorModel{})

	tx, err := applyFilter(tx, filter, generatorSearchColumns)
	if err != nil {
		return nil, err
	}
	tx = applyPagination(tx, filter, allowedGeneratorSortByFields, "id")

	var generatorModels []*models.GeneratorModel
	if err := tx.Find(&generatorModels).Error; err != nil {
		r.logger.Errorw("failed to list generators", "error", err)
		return nil, fmt.Errorf("failed to list generators: %w", err)
	}

	entities, err := r.mapper.ToEntities(generatorModels)
	if err != nil {
		return nil, fmt.Errorf("failed to map generators: %w", err)
	}
	return entities, nil
}

func (r *GeneratorRepositoryImpl) bump(ctx context.Context) {
	if err := r.queryCache.Bump(ctx, cache.GroupGenerators); err != nil {
		r.logger.Warnw("failed to bump generator cache stamp", "error", err)
	}
}
