package models

import (
	"time"

	"keymint/internal/shared/constants"
)

// ActivationModel represents the database persistence model for activations.
// The composite unique index on (key_id, instance) is the authoritative
// guard against duplicate activations.
type ActivationModel struct {
	ID            uint   `gorm:"primarykey"`
	KeyID         uint   `gorm:"not null;uniqueIndex:idx_key_instance,priority:1"`
	Instance      string `gorm:"not null;size:191;uniqueIndex:idx_key_instance,priority:2"`
	IPAddress     string `gorm:"size:45"`
	UserAgent     string `gorm:"size:500"`
	Status        string `gorm:"not null;size:20;index:idx_activation_status"`
	ActivatedAt   *time.Time
	DeactivatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (ActivationModel) TableName() string {
	return constants.TableActivations
}
