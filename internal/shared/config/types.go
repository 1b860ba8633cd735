package config

import "fmt"

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	// Debug enables source locations on every log level.
	Debug bool `mapstructure:"debug"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Enabled switches the query cache between the Redis store and the
	// in-process store.
	Enabled bool `mapstructure:"enabled"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LicenseConfig carries the global licensing policy toggles.
type LicenseConfig struct {
	// AllowDuplicates permits two keys to share the same code.
	AllowDuplicates bool `mapstructure:"allow_duplicates"`
	// RecycleOnRelease returns a key to the available pool when its
	// order is refunded or cancelled instead of deleting it.
	RecycleOnRelease bool `mapstructure:"recycle_on_release"`
	// DefaultCharset is used by the generator when a template does not
	// specify one.
	DefaultCharset string `mapstructure:"default_charset"`
}
