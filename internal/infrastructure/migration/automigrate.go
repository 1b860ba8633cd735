package migration

import (
	"keymint/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.KeyModel{},
		&models.KeyMetaModel{},
		&models.ActivationModel{},
		&models.GeneratorModel{},
		&models.KeySequenceModel{},
	}
}
