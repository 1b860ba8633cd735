package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// Default pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Database table names
	TableKeys        = "license_keys"
	TableActivations = "license_activations"
	TableGenerators  = "license_generators"
	TableKeyMeta     = "license_key_meta"
	TableSequences   = "license_key_sequences"
)
