// Package config handles configuration loading and management for fieldline.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the extraction engine.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Model      ModelConfig      `mapstructure:"model"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Output     OutputConfig     `mapstructure:"output"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// UseAWSBedrock routes calls through AWS Bedrock instead of the direct API.
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// ModelConfig holds model selection for the two agent roles.
type ModelConfig struct {
	// Discovery is the model used by discovery agents.
	Discovery string `mapstructure:"discovery"`
	// Extraction is the model used by extraction agents.
	Extraction string `mapstructure:"extraction"`
}

// TimeoutsConfig holds per-call and per-document deadlines.
type TimeoutsConfig struct {
	// Discovery bounds a single discovery agent call.
	Discovery time.Duration `mapstructure:"discovery"`
	// Extraction bounds a single extraction agent call.
	Extraction time.Duration `mapstructure:"extraction"`
	// Document bounds an entire processing run; exceeding it cancels all
	// in-flight agents and labels the record partial.
	Document time.Duration `mapstructure:"document"`
}

// ThresholdsConfig holds the tunable quality thresholds.
type ThresholdsConfig struct {
	// LowConfidence is the confidence below which a resolved field is flagged.
	LowConfidence float64 `mapstructure:"low_confidence"`
	// MinFields is the minimum discovered field count; fewer fails discovery.
	MinFields int `mapstructure:"min_fields"`
	// MinAgentFraction is the minimum fraction of agents that must complete
	// before a record avoids the degraded flag.
	MinAgentFraction float64 `mapstructure:"min_agent_fraction"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// DBPath is the SQLite database file; empty means the XDG data default.
	DBPath string `mapstructure:"db_path"`
}

// OutputConfig holds CLI output settings.
type OutputConfig struct {
	// Format is json or yaml.
	Format string `mapstructure:"format"`
}

// Load loads configuration from XDG paths, project overrides, and environment
// variables. Precedence (highest to lowest):
//  1. Environment variables (ANTHROPIC_API_KEY, FIELDLINE_*)
//  2. Project config (.fieldline.yaml in current directory or parent)
//  3. User config (~/.config/fieldline/config.yaml)
//  4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Project config takes precedence over user config.
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("FIELDLINE")
	// Nested keys use dots; shell variables can't, so output.format is
	// settable as FIELDLINE_OUTPUT_FORMAT.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("model.discovery", cfg.Model.Discovery)
	v.Set("model.extraction", cfg.Model.Extraction)
	v.Set("timeouts.discovery", cfg.Timeouts.Discovery.String())
	v.Set("timeouts.extraction", cfg.Timeouts.Extraction.String())
	v.Set("timeouts.document", cfg.Timeouts.Document.String())
	v.Set("thresholds.low_confidence", cfg.Thresholds.LowConfidence)
	v.Set("thresholds.min_fields", cfg.Thresholds.MinFields)
	v.Set("thresholds.min_agent_fraction", cfg.Thresholds.MinAgentFraction)
	v.Set("storage.db_path", cfg.Storage.DBPath)
	v.Set("output.format", cfg.Output.Format)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DefaultDBPath returns the XDG data path for the record database.
func DefaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "fieldline", "fieldline.db")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("model.discovery", "")
	v.SetDefault("model.extraction", "")

	v.SetDefault("timeouts.discovery", "2m")
	v.SetDefault("timeouts.extraction", "3m")
	v.SetDefault("timeouts.document", "20m")

	v.SetDefault("thresholds.low_confidence", 0.5)
	v.SetDefault("thresholds.min_fields", 1)
	v.SetDefault("thresholds.min_agent_fraction", 0.5)

	v.SetDefault("storage.db_path", DefaultDBPath())
	v.SetDefault("output.format", "json")
}

// getUserConfigDir returns the XDG config directory for fieldline.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "fieldline")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "fieldline")
	}
	return filepath.Join(home, ".config", "fieldline")
}

// findProjectConfig searches for .fieldline.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".fieldline.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Timeouts: TimeoutsConfig{
			Discovery:  2 * time.Minute,
			Extraction: 3 * time.Minute,
			Document:   20 * time.Minute,
		},
		Thresholds: ThresholdsConfig{
			LowConfidence:    0.5,
			MinFields:        1,
			MinAgentFraction: 0.5,
		},
		Storage: StorageConfig{
			DBPath: DefaultDBPath(),
		},
		Output: OutputConfig{
			Format: "json",
		},
	}
}
