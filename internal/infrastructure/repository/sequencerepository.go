package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"keymint/internal/domain/license"
	"keymint/internal/infrastructure/persistence/models"
	"keymint/internal/shared/biztime"
	"keymint/internal/shared/db"
	"keymint/internal/shared/logger"
)

type SequenceRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewSequenceRepository(db *gorm.DB, logger logger.Interface) license.SequenceRepository {
	return &SequenceRepositoryImpl{db: db, logger: logger}
}

func (r *SequenceRepositoryImpl) Position(ctx context.Context, productID uint) (uint64, error) {
	var model models.KeySequenceModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("product_id = ?", productID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 1, nil
		}
		r.logger.Errorw("failed to get sequence position", "product_id", productID, "error", err)
		return 0, fmt.Errorf("failed to get sequence position: %w", err)
	}
	return model.Position, nil
}

func (r *SequenceRepositoryImpl) Advance(ctx context.Context, productID uint, position uint64) error {
	tx := db.GetTxFromContext(ctx, r.db)
	now := biztime.NowUTC()

	res := tx.Model(&models.KeySequenceModel{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{"position": position, "updated_at": now})
	if res.Error != nil {
		return fmt.Errorf("failed to advance sequence: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	row := &models.KeySequenceModel{
		ProductID: productID,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Create(row).Error; err != nil {
		return fmt.Errorf("failed to create sequence row: %w", err)
	}
	return nil
}
