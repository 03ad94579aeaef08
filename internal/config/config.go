// Package config loads engine configuration from the workspace.
// Settings come from .blueprint/config.yaml with BLUEPRINT_* environment
// overrides; a missing file means defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults applied when the file and environment leave a setting unset
const (
	DefaultMaxRetries       = 3
	DefaultMaxExecutionTime = 30 * time.Minute
	DefaultLogRetention     = 1000
	DefaultMaxHistorySize   = 100
	DefaultPreviewLen       = 500
)

// Config holds all engine settings
type Config struct {
	// Execution bounds
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	MaxExecutionTime time.Duration `mapstructure:"max_execution_time"`

	// AutoRecovery turns on advisory recovery hints between retries
	AutoRecovery bool `mapstructure:"auto_recovery"`

	// LogRetention caps the per-run execution log
	LogRetention int `mapstructure:"log_retention"`

	// MaxHistorySize caps the context snapshot history
	MaxHistorySize int `mapstructure:"max_history_size"`

	// CommandPreviewLen truncates step output in log entries
	CommandPreviewLen int `mapstructure:"command_preview_len"`

	// ManifestDir receives JSON run manifests; empty disables them
	ManifestDir string `mapstructure:"manifest_dir"`

	// DefaultModels maps intents ("codegen", "fast") to model names
	DefaultModels map[string]string `mapstructure:"default_models"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig holds operator logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when nothing is configured
func Default() *Config {
	return &Config{
		MaxRetries:        DefaultMaxRetries,
		MaxExecutionTime:  DefaultMaxExecutionTime,
		AutoRecovery:      true,
		LogRetention:      DefaultLogRetention,
		MaxHistorySize:    DefaultMaxHistorySize,
		CommandPreviewLen: DefaultPreviewLen,
		DefaultModels:     map[string]string{},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration for the workspace rooted at dir. The file is
// optional; environment variables override it either way.
func Load(dir string) (*Config, error) {
	return load(filepath.Join(dir, ".blueprint", "config.yaml"), false)
}

// LoadFile reads configuration from an explicit file. Unlike Load, the
// file must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BLUEPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if required {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay cannot be negative, got %s", c.RetryDelay)
	}
	if c.MaxExecutionTime <= 0 {
		return fmt.Errorf("max_execution_time must be positive, got %s", c.MaxExecutionTime)
	}
	if c.LogRetention < 1 {
		return fmt.Errorf("log_retention must be at least 1, got %d", c.LogRetention)
	}
	if c.MaxHistorySize < 1 {
		return fmt.Errorf("max_history_size must be at least 1, got %d", c.MaxHistorySize)
	}
	if c.CommandPreviewLen < 1 {
		return fmt.Errorf("command_preview_len must be at least 1, got %d", c.CommandPreviewLen)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level %q is not valid (must be debug, info, warn, or error)", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log format %q is not valid (must be json or text)", c.Log.Format)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("retry_delay", time.Duration(0))
	v.SetDefault("max_execution_time", DefaultMaxExecutionTime)
	v.SetDefault("auto_recovery", true)
	v.SetDefault("log_retention", DefaultLogRetention)
	v.SetDefault("max_history_size", DefaultMaxHistorySize)
	v.SetDefault("command_preview_len", DefaultPreviewLen)
	v.SetDefault("manifest_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// applyDefaults fills fields viper could not, such as map-typed
// settings absent from both file and environment
func applyDefaults(cfg *Config) {
	defaults := Default()

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.MaxExecutionTime == 0 {
		cfg.MaxExecutionTime = defaults.MaxExecutionTime
	}
	if cfg.LogRetention == 0 {
		cfg.LogRetention = defaults.LogRetention
	}
	if cfg.MaxHistorySize == 0 {
		cfg.MaxHistorySize = defaults.MaxHistorySize
	}
	if cfg.CommandPreviewLen == 0 {
		cfg.CommandPreviewLen = defaults.CommandPreviewLen
	}
	if cfg.DefaultModels == nil {
		cfg.DefaultModels = map[string]string{}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}
