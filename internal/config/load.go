package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var defineFlagsOnce sync.Once

// Load loads configuration from, in increasing precedence: defaults, a
// config file, environment variables (prefix GRAPHMIRROR_), and command line
// flags.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	defineFlags()
	if !pflag.Parsed() {
		pflag.Parse()
	}

	cfgPath, _ := pflag.CommandLine.GetString("config")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("graphmirror")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/graphmirror/")
		v.AddConfigPath("$HOME/.graphmirror")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgPath != "" {
			return nil, fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("GRAPHMIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	bindChangedFlagsToViper(v)

	var cfg Config
	if err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(mapstructure.StringToTimeDurationHookFunc()),
	)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// bindChangedFlagsToViper copies only explicitly-set flags into Viper,
// preserving precedence: flags > env > file > defaults. The config and
// version flags are not configuration keys and are skipped.
func bindChangedFlagsToViper(v *viper.Viper) {
	pflag.CommandLine.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "version" {
			return
		}
		switch f.Value.Type() {
		case "int":
			val, _ := pflag.CommandLine.GetInt(f.Name)
			v.Set(f.Name, val)
		case "bool":
			val, _ := pflag.CommandLine.GetBool(f.Name)
			v.Set(f.Name, val)
		case "float64":
			val, _ := pflag.CommandLine.GetFloat64(f.Name)
			v.Set(f.Name, val)
		default:
			v.Set(f.Name, f.Value.String())
		}
	})
}

// defineFlags defines all command line flags using canonical dotted keys.
func defineFlags() {
	defineFlagsOnce.Do(func() {
		pflag.String("config", "", "Path to a YAML config file")

		pflag.String("database.dsn", "", "Complete MySQL DSN (user:pass@tcp(host:port)/db)")
		pflag.String("database.host", "", "Database host")
		pflag.Int("database.port", 0, "Database port")
		pflag.String("database.user", "", "Database user")
		pflag.String("database.password", "", "Database password")
		pflag.String("database.database", "", "Database name")
		pflag.String("database.tls_mode", "", "TLS mode (false, skip-verify, preferred, true)")

		pflag.String("schema_file", "", "Path to a JSON file describing the GraphQL schema to mirror")

		pflag.String("logging.level", "", "Log level (debug, info, warn, error)")
		pflag.String("logging.format", "", "Log format (json, text)")

		pflag.Bool("observability.enabled", false, "Enable OpenTelemetry tracing and metrics")
		pflag.String("observability.otlp_endpoint", "", "OTLP/gRPC trace exporter endpoint")
		pflag.String("observability.metrics_addr", "", "Address the Prometheus metrics handler listens on")
	})
}
