// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Mode selects which front end a Config is validated for.
type Mode int

const (
	ModeBatch Mode = iota
	ModeServe
	// ModeInspect checks only the shared settings.
	ModeInspect
)

// Config holds all configuration for the service. It is built once at
// process start and handed to constructors; nothing downstream reads the
// environment.
type Config struct {
	// Batch front end
	InputDir  string `mapstructure:"input_dir"`
	OutputDir string `mapstructure:"output_dir"`

	// Shared
	AlgoVersion    string `mapstructure:"algo_version"`
	Kernel         string `mapstructure:"kernel"`
	LibPath        string `mapstructure:"lib_path"`
	ONNXRuntimeLib string `mapstructure:"onnxruntime_lib"`
	LogLevel       string `mapstructure:"log_level"`

	// Service front end
	Port           int           `mapstructure:"port"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	GRPCHealthPort int           `mapstructure:"grpc_health_port"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`

	// Outcome ledger
	Redis     string        `mapstructure:"redis_addr"`
	LedgerTTL time.Duration `mapstructure:"ledger_ttl"`

	// OpenTelemetry configuration
	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`
}

// env names, bound exactly (no prefix).
var envBindings = map[string][]string{
	"input_dir":        {"INPUT_DIR"},
	"output_dir":       {"OUTPUT_DIR"},
	"algo_version":     {"ALGO_VERSION"},
	"kernel":           {"KERNEL"},
	"lib_path":         {"LIB_PATH"},
	"onnxruntime_lib":  {"ONNXRUNTIME_LIB"},
	"log_level":        {"LOG_LEVEL"},
	"port":             {"PORT"},
	"max_body_bytes":   {"MAX_BODY_BYTES"},
	"grpc_health_port": {"GRPC_HEALTH_PORT"},
	"shutdown_grace":   {"SHUTDOWN_GRACE"},
	"redis_addr":       {"REDIS_ADDR"},
	"ledger_ttl":       {"LEDGER_TTL"},
	"otel_enabled":     {"OTEL_ENABLED"},
	"otel_endpoint":    {"OTEL_EXPORTER_OTLP_ENDPOINT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", "/rundata/input")
	v.SetDefault("output_dir", "/rundata/output")
	v.SetDefault("algo_version", "0.1.0")
	v.SetDefault("kernel", "sigmoid")
	v.SetDefault("lib_path", "builtin")
	v.SetDefault("onnxruntime_lib", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8080)
	v.SetDefault("max_body_bytes", 1<<20)
	v.SetDefault("grpc_health_port", 0)
	v.SetDefault("shutdown_grace", 5*time.Second)
	v.SetDefault("redis_addr", "")
	v.SetDefault("ledger_ttl", 24*time.Hour)
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_endpoint", "")
}

// Load loads configuration from flags, environment variables, and an optional config file.
// Priority (highest to lowest): flags > env vars > config file > defaults.
// Flags are matched by key with dashes (e.g. --input-dir binds input_dir).
// An empty configFile searches ./algosvc.yaml and /etc/algosvc/algosvc.yaml.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if flags != nil {
		for key := range envBindings {
			if f := flags.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("algosvc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/algosvc/")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// A standard OTLP endpoint turns tracing on.
	if cfg.OTELEndpoint != "" {
		cfg.OTELEnabled = true
	}

	return &cfg, nil
}

func flagName(key string) string {
	b := []byte(key)
	for i, c := range b {
		if c == '_' {
			b[i] = '-'
		}
	}
	return string(b)
}

// Validate validates the configuration for the given front end
func (c *Config) Validate(mode Mode) error {
	if c.AlgoVersion == "" {
		return fmt.Errorf("algo_version must not be empty")
	}
	switch c.Kernel {
	case "sigmoid":
	case "onnx":
		if c.LibPath == "" || c.LibPath == "builtin" {
			return fmt.Errorf("lib_path must point at a model file when kernel is onnx")
		}
	default:
		return fmt.Errorf("invalid kernel: %q", c.Kernel)
	}

	switch mode {
	case ModeBatch:
		if c.InputDir == "" {
			return fmt.Errorf("input_dir must not be empty")
		}
		if c.OutputDir == "" {
			return fmt.Errorf("output_dir must not be empty")
		}
	case ModeServe:
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("invalid port: %d", c.Port)
		}
		if c.GRPCHealthPort < 0 || c.GRPCHealthPort > 65535 {
			return fmt.Errorf("invalid grpc health port: %d", c.GRPCHealthPort)
		}
		if c.GRPCHealthPort != 0 && c.GRPCHealthPort == c.Port {
			return fmt.Errorf("port and grpc_health_port must be different")
		}
		if c.MaxBodyBytes <= 0 {
			return fmt.Errorf("max_body_bytes must be positive")
		}
	}
	return nil
}
