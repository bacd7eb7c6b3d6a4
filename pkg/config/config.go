// Package config provides configuration management for the optimizer CLI.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for cmd/planopt.
type Config struct {
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	PlanStore PlanStoreConfig `mapstructure:"planstore"`
	Log       LogConfig       `mapstructure:"log"`
}

// OptimizerConfig holds optimizer-run configuration.
type OptimizerConfig struct {
	// EnablePlanCache opens a pkg/planstore cache and consults/populates it
	// around the Optimize call.
	EnablePlanCache bool `mapstructure:"enable_plan_cache"`
}

// PlanStoreConfig holds plan-cache database configuration, matching
// planstore.Config's field set so it can be unmarshaled straight through.
type PlanStoreConfig struct {
	Type     string `mapstructure:"type"` // sqlite, postgres, or mysql
	Path     string `mapstructure:"path"` // sqlite file, or ":memory:"
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// Load reads configuration from the specified file path, falling back to
// defaults when no file is found.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("planopt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/planopt")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an in-memory buffer (useful for
// testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("optimizer.enable_plan_cache", false)

	v.SetDefault("planstore.type", "sqlite")
	v.SetDefault("planstore.path", "planstore.db")
	v.SetDefault("planstore.max_conns", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.PlanStore.Type {
	case "sqlite", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("unsupported plan store type: %s", c.PlanStore.Type)
	}
	if c.PlanStore.Type != "sqlite" && c.PlanStore.Host == "" {
		return fmt.Errorf("plan store host is required for type %s", c.PlanStore.Type)
	}
	return nil
}
