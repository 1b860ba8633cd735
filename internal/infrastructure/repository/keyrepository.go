package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"keymint/internal/domain/license"
	vo "keymint/internal/domain/license/valueobjects"
	"keymint/internal/infrastructure/cache"
	"keymint/internal/infrastructure/persistence/mappers"
	"keymint/internal/infrastructure/persistence/models"
	"keymint/internal/shared/biztime"
	"keymint/internal/shared/db"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/query"
)

// allowedKeySortByFields defines the whitelist of allowed ORDER BY fields
// to prevent SQL injection attacks.
var allowedKeySortByFields = map[string]bool{
	"id":               true,
	"code":             true,
	"truncated_key":    true,
	"product_id":       true,
	"order_id":         true,
	"customer_id":      true,
	"status":           true,
	"source":           true,
	"price":            true,
	"valid_for":        true,
	"activation_limit": true,
	"ordered_at":       true,
	"expires_at":       true,
	"activated_at":     true,
	"created_at":       true,
	"updated_at":       true,
}

var keySearchColumns = []string{"code", "truncated_key"}

type KeyRepositoryImpl struct {
	db         *gorm.DB
	mapper     mappers.KeyMapper
	queryCache cache.QueryCache
	logger     logger.Interface
}

func NewKeyRepository(
	db *gorm.DB,
	queryCache cache.QueryCache,
	logger logger.Interface,
) license.KeyRepository {
	return &KeyRepositoryImpl{
		db:         db,
		mapper:     mappers.NewKeyMapper(),
		queryCache: queryCache,
		logger:     logger,
	}
}

func (r *KeyRepositoryImpl) Create(ctx context.Context, key *license.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}

	key.EnsureUUID()
	key.TouchCreated(biztime.NowUTC())

	model, err := r.mapper.ToModel(key)
	if err != nil {
		return fmt.Errorf("failed to map key entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create key in database", "error", err)
		return fmt.Errorf("failed to create key: %w", err)
	}
	key.SetID(model.ID)

	if err := r.writeMeta(tx, key.ID(), key.PendingMeta()); err != nil {
		return err
	}
	key.ApplyMetaDiff()
	key.MarkClean()

	r.bump(ctx)
	r.logger.Debugw("key created", "id", model.ID, "product_id", model.ProductID)
	return nil
}

func (r *KeyRepositoryImpl) Update(ctx context.Context, key *license.Key) error {
	if key.ID() == 0 {
		return license.ErrKeyNotFound
	}

	tx := db.GetTxFromContext(ctx, r.db)

	if cols := key.Dirty(); len(cols) > 0 {
		key.TouchUpdated(biztime.NowUTC())

		model, err := r.mapper.ToModel(key)
		if err != nil {
			return fmt.Errorf("failed to map key entity: %w", err)
		}

		cols = append(cols, "updated_at")
		if err := tx.Model(&models.KeyModel{}).
			Where("id = ?", key.ID()).
			Select(cols).
			Updates(model).Error; err != nil {
			r.logger.Errorw("failed to update key in database", "id", key.ID(), "error", err)
			return fmt.Errorf("failed to update key: %w", err)
		}
	}

	if err := r.writeMeta(tx, key.ID(), key.PendingMeta()); err != nil {
		return err
	}
	key.ApplyMetaDiff()
	key.MarkClean()

	r.bump(ctx)
	return nil
}

func (r *KeyRepositoryImpl) Delete(ctx context.Context, id uint) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("key_id = ?", id).Delete(&models.KeyMetaModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete key metadata: %w", err)
	}
	if err := tx.Where("key_id = ?", id).Delete(&models.ActivationModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete key activations: %w", err)
	}
	if err := tx.Delete(&models.KeyModel{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	r.bump(ctx)
	if err := r.queryCache.Bump(ctx, cache.GroupActivations); err != nil {
		r.logger.Warnw("failed to bump activation cache stamp", "error", err)
	}
	r.logger.Infow("key deleted", "id", id)
	return nil
}

func (r *KeyRepositoryImpl) FindByID(ctx context.Context, id uint) (*license.Key, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *KeyRepositoryImpl) FindByCode(ctx context.Context, code string) (*license.Key, error) {
	return r.findOne(ctx, "code = ?", code)
}

func (r *KeyRepositoryImpl) FindByUUID(ctx context.Context, uuid string) (*license.Key, error) {
	return r.findOne(ctx, "uuid = ?", uuid)
}

// FindByCodeForUpdate reads the key row under a FOR UPDATE lock so that
// concurrent activations of the same key serialize on the limit re-check.
// SQLite has no row locks; its writes serialize on the database file.
func (r *KeyRepositoryImpl) FindByCodeForUpdate(ctx context.Context, code string) (*license.Key, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	if tx.Dialector.Name() == "mysql" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(tx, "code = ?", code)
}

func (r *KeyRepositoryImpl) findOne(ctx context.Context, cond string, arg any) (*license.Key, error) {
	return r.first(db.GetTxFromContext(ctx, r.db), cond, arg)
}

func (r *KeyRepositoryImpl) first(tx *gorm.DB, cond string, arg any) (*license.Key, error) {
	var model models.KeyModel
	if err := tx.Where(cond, arg).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get key", "cond", cond, "error", err)
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	meta, err := r.loadMeta(tx, []uint{model.ID})
	if err != nil {
		return nil, err
	}

	entity, err := r.mapper.ToEntity(&model, meta[model.ID])
	if err != nil {
		return nil, fmt.Errorf("failed to map key: %w", err)
	}
	return entity, nil
}

func (r *KeyRepositoryImpl) List(ctx context.Context, filter *query.Filter) ([]*license.Key, error) {
	tx := db.GetTxFromContext(ctx, r.db).Model(&models.KeyModel{})

	tx, err := applyFilter(tx, filter, keySearchColumns)
	if err != nil {
		return nil, err
	}
	tx = applyPagination(tx, filter, allowedKeySortByFields, "id")

	var keyModels []*models.KeyModel
	if err := tx.Find(&keyModels).Error; err != nil {
		r.logger.Errorw("failed to list keys", "error", err)
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	ids := make([]uint, 0, len(keyModels))
	for _, km := range keyModels {
		ids = append(ids, km.ID)
	}

	metaByKey, err := r.loadMeta(db.GetTxFromContext(ctx, r.db), ids)
	if err != nil {
		return nil, err
	}

	entities, err := r.mapper.ToEntities(keyModels, metaByKey)
	if err != nil {
		return nil, fmt.Errorf("failed to map keys: %w", err)
	}
	return entities, nil
}

func (r *KeyRepositoryImpl) ListIDs(ctx context.Context, filter *query.Filter) ([]uint, error) {
	stamp, cached := r.stamp(ctx)
	fp := filterFingerprint(filter)
	if cached {
		if ids, ok := r.queryCache.GetIDs(ctx, cache.GroupKeys, stamp, fp); ok {
			return ids, nil
		}
	}

	tx := db.GetTxFromContext(ctx, r.db).Model(&models.KeyModel{})

	tx, err := applyFilter(tx, filter, keySearchColumns)
	if err != nil {
		return nil, err
	}
	tx = applyPagination(tx, filter, allowedKeySortByFields, "id")

	var ids []uint
	if err := tx.Pluck("id", &ids).Error; err != nil {
		r.logger.Errorw("failed to list key ids", "error", err)
		return nil, fmt.Errorf("failed to list key ids: %w", err)
	}

	if cached {
		r.queryCache.SetIDs(ctx, cache.GroupKeys, stamp, fp, ids)
	}
	return ids, nil
}

func (r *KeyRepositoryImpl) Count(ctx context.Context, filter *query.Filter) (int64, error) {
	stamp, cached := r.stamp(ctx)
	fp := filterFingerprint(filter)
	if cached {
		if count, ok := r.queryCache.GetCount(ctx, cache.GroupKeys, stamp, fp); ok {
			return count, nil
		}
	}

	tx := db.GetTxFromContext(ctx, r.db).Model(&models.KeyModel{})

	tx, err := applyFilter(tx, filter, keySearchColumns)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		r.logger.Errorw("failed to count keys", "error", err)
		return 0, fmt.Errorf("failed to count keys: %w", err)
	}

	if cached {
		r.queryCache.SetCount(ctx, cache.GroupKeys, stamp, fp, count)
	}
	return count, nil
}

func (r *KeyRepositoryImpl) CountByCode(ctx context.Context, code string, excludeID uint) (int64, error) {
	tx := db.GetTxFromContext(ctx, r.db).
		Model(&models.KeyModel{}).
		Where("code = ?", code)
	if excludeID > 0 {
		tx = tx.Where("id != ?", excludeID)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count keys by code: %w", err)
	}
	return count, nil
}

func (r *KeyRepositoryImpl) CountStock(ctx context.Context, productID uint) (int64, error) {
	var count int64
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.KeyModel{}).
		Scopes(db.ForProduct(productID), db.WithStatus(string(vo.KeyStatusAvailable))).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count stock: %w", err)
	}
	return count, nil
}

// writeMeta applies a staged metadata diff. A nil value deletes the row;
// anything else upserts it.
func (r *KeyRepositoryImpl) writeMeta(tx *gorm.DB, keyID uint, pending map[string]*string) error {
	for metaKey, value := range pending {
		if value == nil {
			if err := tx.Where("key_id = ? AND meta_key = ?", keyID, metaKey).
				Delete(&models.KeyMetaModel{}).Error; err != nil {
				return fmt.Errorf("failed to delete key metadata: %w", err)
			}
			continue
		}

		res := tx.Model(&models.KeyMetaModel{}).
			Where("key_id = ? AND meta_key = ?", keyID, metaKey).
			Update("meta_value", *value)
		if res.Error != nil {
			return fmt.Errorf("failed to update key metadata: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			row := &models.KeyMetaModel{KeyID: keyID, MetaKey: metaKey, MetaValue: *value}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to create key metadata: %w", err)
			}
		}
	}
	return nil
}

func (r *KeyRepositoryImpl) loadMeta(tx *gorm.DB, keyIDs []uint) (map[uint]map[string]string, error) {
	if len(keyIDs) == 0 {
		return map[uint]map[string]string{}, nil
	}

	var rows []*models.KeyMetaModel
	if err := tx.Where("key_id IN ?", keyIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load key metadata: %w", err)
	}

	byKey := make(map[uint]map[string]string, len(keyIDs))
	for _, row := range rows {
		if byKey[row.KeyID] == nil {
			byKey[row.KeyID] = map[string]string{}
		}
		byKey[row.KeyID][row.MetaKey] = row.MetaValue
	}
	return byKey, nil
}

// stamp reads the cache stamp; a cache failure disables caching for this
// call rather than failing the query.
func (r *KeyRepositoryImpl) stamp(ctx context.Context) (uint64, bool) {
	stamp, err := r.queryCache.Stamp(ctx, cache.GroupKeys)
	if err != nil {
		r.logger.Warnw("failed to read key cache stamp", "error", err)
		return 0, false
	}
	return stamp, true
}

func (r *KeyRepositoryImpl) bump(ctx context.Context) {
	if err := r.queryCache.Bump(ctx, cache.GroupKeys); err != nil {
		r.logger.Warnw("failed to bump key cache stamp", "error", err)
	}
}
