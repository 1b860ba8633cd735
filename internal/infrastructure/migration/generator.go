package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"keymint/internal/shared/logger"
)

// Generator scaffolds timestamped up/down migration file pairs under the
// scripts directory, in the layout golang-migrate expects.
type Generator struct {
	scriptsPath string
	logger      logger.Interface
}

func NewGenerator(scriptsPath string) *Generator {
	return &Generator{
		scriptsPath: scriptsPath,
		logger:      logger.NewLogger().With("component", "migration.generator"),
	}
}

// CreateMigration writes <timestamp>_<name>.up.sql and .down.sql stubs.
func (g *Generator) CreateMigration(name string) error {
	if err := os.MkdirAll(g.scriptsPath, 0755); err != nil {
		return fmt.Errorf("failed to create scripts directory: %w", err)
	}

	stamp := time.Now().Format("20060102150405")
	pair := map[string]string{
		filepath.Join(g.scriptsPath, fmt.Sprintf("%s_%s.up.sql", stamp, name)):   g.stub(name, "up"),
		filepath.Join(g.scriptsPath, fmt.Sprintf("%s_%s.down.sql", stamp, name)): g.stub(name, "down"),
	}

	for path, content := range pair {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create migration file %s: %w", path, err)
		}
	}

	g.logger.Infow("migration files created", "name", name, "timestamp", stamp)
	return nil
}

func (g *Generator) stub(name, direction string) string {
	return fmt.Sprintf(`-- Migration: %s (%s)
-- Created: %s

-- Add SQL statements here

`, name, direction, time.Now().Format("2006-01-02 15:04:05"))
}
