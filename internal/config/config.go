// Package config provides configuration loading and validation for the
// dagshift CLI.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("workers must be positive")
	ErrInvalidMaxFileSize = errors.New("invalid max file size")
	ErrInvalidLogLevel    = errors.New("invalid logging level")
	ErrInvalidLogFormat   = errors.New("invalid logging format")
)

// Default configuration values.
const (
	defaultFilter      = "**/*.py"
	defaultWorkers     = 1
	defaultMaxFileSize = "4MB"
)

// Config holds all configuration for the dagshift CLI.
type Config struct {
	Convert ConvertConfig `mapstructure:"convert"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ConvertConfig holds conversion-specific configuration.
type ConvertConfig struct {
	Rules       []string `mapstructure:"rules"`
	Filter      string   `mapstructure:"filter"`
	MaxFileSize string   `mapstructure:"max_file_size"`
	Workers     int      `mapstructure:"workers"`
	InPlace     bool     `mapstructure:"in_place"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("dagshift")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
	}

	viperCfg.SetEnvPrefix("DAGSHIFT")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("convert.filter", defaultFilter)
	viperCfg.SetDefault("convert.workers", defaultWorkers)
	viperCfg.SetDefault("convert.in_place", false)
	viperCfg.SetDefault("convert.max_file_size", defaultMaxFileSize)

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Convert.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Convert.Workers)
	}

	if config.Convert.MaxFileSize != "" {
		if _, err := humanize.ParseBytes(config.Convert.MaxFileSize); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidMaxFileSize, config.Convert.MaxFileSize)
		}
	}

	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, config.Logging.Level)
	}

	switch config.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidLogFormat, config.Logging.Format)
	}

	return nil
}
