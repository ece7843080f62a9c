// Package config loads the demo CLI's configuration from flags, environment
// variables, and an optional config file, in that precedence order.
package config

import "time"

// Config holds the demo CLI's full configuration.
type Config struct {
	Database      DatabaseConfig      `mapstructure:"database"`
	SchemaFile    string              `mapstructure:"schema_file"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// DatabaseConfig holds MySQL/TiDB connection parameters.
type DatabaseConfig struct {
	// ConnectionString is a complete go-sql-driver/mysql DSN. When set, it
	// overrides Host/Port/User/Password/Database.
	ConnectionString string `mapstructure:"dsn"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	// TLSMode is one of "false", "skip-verify", "preferred", "true", passed
	// through to the mysql driver's tls DSN parameter verbatim.
	TLSMode string `mapstructure:"tls_mode"`

	Pool PoolConfig `mapstructure:"pool"`
}

// PoolConfig holds connection pool parameters.
type PoolConfig struct {
	MaxOpen     int           `mapstructure:"max_open"`
	MaxIdle     int           `mapstructure:"max_idle"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}

// LoggingConfig controls the demo CLI's structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// ObservabilityConfig controls the demo CLI's OpenTelemetry wiring.
type ObservabilityConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	ServiceName      string  `mapstructure:"service_name"`
	Environment      string  `mapstructure:"environment"`
	TraceSampleRatio float64 `mapstructure:"trace_sample_ratio"`
	OTLPEndpoint     string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure     bool    `mapstructure:"otlp_insecure"`
	MetricsAddr      string  `mapstructure:"metrics_addr"`
}

func setDefaults(v settable) {
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 4000)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.database", "graphmirror")
	v.SetDefault("database.tls_mode", "false")
	v.SetDefault("database.pool.max_open", 1)
	v.SetDefault("database.pool.max_idle", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.service_name", "graphmirror")
	v.SetDefault("observability.environment", "development")
	v.SetDefault("observability.trace_sample_ratio", 0.0)
	v.SetDefault("observability.metrics_addr", ":9464")
}

// settable is the subset of *viper.Viper that setDefaults needs, so it can be
// unit tested without constructing a real viper instance.
type settable interface {
	SetDefault(key string, value any)
}
