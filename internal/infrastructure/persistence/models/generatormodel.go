package models

import (
	"time"

	"keymint/internal/shared/constants"
)

// GeneratorModel represents the database persistence model for key
// generator templates.
type GeneratorModel struct {
	ID              uint   `gorm:"primarykey"`
	Name            string `gorm:"not null;size:255"`
	Pattern         string `gorm:"not null;size:255"`
	Charset         string `gorm:"not null;size:255"`
	ValidFor        int    `gorm:"not null;default:0"`
	ActivationLimit int    `gorm:"not null;default:0"`
	Status          string `gorm:"not null;size:20;default:active"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (GeneratorModel) TableName() string {
	return constants.TableGenerators
}

// KeySequenceModel stores the next sequential position per product.
// Positions start at 1 and only ever grow.
type KeySequenceModel struct {
	ID        uint   `gorm:"primarykey"`
	ProductID uint   `gorm:"uniqueIndex;not null"`
	Position  uint64 `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (KeySequenceModel) TableName() string {
	return constants.TableSequences
}
