// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ScoringConfig configures the scoring engine inputs.
type ScoringConfig struct {
	// RangesFile points to a YAML reference range file; empty means the
	// built-in defaults (or the store's catalog, when populated).
	RangesFile string `yaml:"ranges_file" mapstructure:"ranges_file"`
	// VerticalsFile points to a YAML vertical profiles file; empty means
	// the built-in default + datacenter profiles.
	VerticalsFile string `yaml:"verticals_file" mapstructure:"verticals_file"`
	// DefaultVertical is applied to accounts without a vertical of their own.
	DefaultVertical string `yaml:"default_vertical" mapstructure:"default_vertical"`
	// SnapshotConcurrency bounds the trend snapshot fan-out.
	SnapshotConcurrency int `yaml:"snapshot_concurrency" mapstructure:"snapshot_concurrency"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port          int      `yaml:"port" mapstructure:"port"`
	RatePerSecond float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	CORSOrigins   []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "health.db")
	v.SetDefault("scoring.default_vertical", "default")
	v.SetDefault("scoring.snapshot_concurrency", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
