package models

import (
	"time"

	"keymint/internal/shared/constants"
)

// KeyModel represents the database persistence model for license keys.
// This is the anti-corruption layer between domain and database.
type KeyModel struct {
	ID              uint    `gorm:"primarykey"`
	UUID            string  `gorm:"uniqueIndex;not null;size:36"`
	Code            string  `gorm:"not null;size:255;index:idx_code"`
	TruncatedKey    string  `gorm:"not null;size:7;index:idx_truncated"`
	ProductID       uint    `gorm:"not null;index:idx_product_status,priority:1"`
	OrderID         uint    `gorm:"index:idx_order"`
	OrderItemID     uint    ``
	SubscriptionID  uint    `gorm:"index:idx_subscription"`
	VendorID        uint    ``
	CustomerID      uint    `gorm:"index:idx_customer"`
	Price           float64 `gorm:"type:decimal(12,2)"`
	Source          string  `gorm:"not null;size:20;default:automatic"`
	Status          string  `gorm:"not null;size:20;index:idx_product_status,priority:2"`
	ValidFor        int     `gorm:"not null;default:0"`
	ActivationLimit int     `gorm:"not null;default:0"`
	OrderedAt       *time.Time
	ExpiresAt       *time.Time `gorm:"index:idx_expires"`
	ActivatedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (KeyModel) TableName() string {
	return constants.TableKeys
}

// KeyMetaModel stores one metadata entry per row, keyed by (key_id, meta_key).
type KeyMetaModel struct {
	ID        uint   `gorm:"primarykey"`
	KeyID     uint   `gorm:"not null;uniqueIndex:idx_key_meta,priority:1"`
	MetaKey   string `gorm:"not null;size:191;uniqueIndex:idx_key_meta,priority:2"`
	MetaValue string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (KeyMetaModel) TableName() string {
	return constants.TableKeyMeta
}
