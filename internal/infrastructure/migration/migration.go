// Package migration runs schema migrations, either through GORM
// AutoMigrate in development or versioned SQL scripts elsewhere.
package migration

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"keymint/internal/shared/constants"
	"keymint/internal/shared/logger"
)

// Manager runs migrations through the strategy picked for the environment.
type Manager struct {
	strategy Strategy
	logger   *slog.Logger
}

// NewManager picks a strategy for the environment: development uses GORM
// AutoMigrate, test and production run the versioned SQL scripts.
func NewManager(environment string) *Manager {
	var strategy Strategy
	switch strings.ToLower(environment) {
	case constants.EnvTest, constants.EnvProduction:
		scriptsPath, _ := filepath.Abs("./internal/infrastructure/migration/scripts")
		strategy = NewGolangMigrateStrategy(scriptsPath)
	default:
		strategy = NewGormAutoMigrateStrategy()
	}

	return &Manager{
		strategy: strategy,
		logger:   logger.WithComponent("migration.manager"),
	}
}

// Migrate applies pending migrations for the given models.
func (m *Manager) Migrate(db *gorm.DB, models ...interface{}) error {
	m.logger.Info("starting database migration",
		"strategy", m.strategy.GetName(),
		"models_count", len(models))

	if err := m.strategy.Migrate(db, models...); err != nil {
		m.logger.Error("migration failed",
			"strategy", m.strategy.GetName(),
			"error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}

	m.logger.Info("database migration completed",
		"strategy", m.strategy.GetName())
	return nil
}
