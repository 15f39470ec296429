package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fieldline/fieldline/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify fieldline configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/fieldline/config.yaml
Project-specific overrides can be placed in .fieldline.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("model.discovery: %s\n", cfg.Model.Discovery)
	fmt.Printf("model.extraction: %s\n", cfg.Model.Extraction)
	fmt.Printf("timeouts.discovery: %s\n", cfg.Timeouts.Discovery)
	fmt.Printf("timeouts.extraction: %s\n", cfg.Timeouts.Extraction)
	fmt.Printf("timeouts.document: %s\n", cfg.Timeouts.Document)
	fmt.Printf("thresholds.low_confidence: %g\n", cfg.Thresholds.LowConfidence)
	fmt.Printf("thresholds.min_fields: %d\n", cfg.Thresholds.MinFields)
	fmt.Printf("thresholds.min_agent_fraction: %g\n", cfg.Thresholds.MinAgentFraction)
	fmt.Printf("storage.db_path: %s\n", cfg.Storage.DBPath)
	fmt.Printf("output.format: %s\n", cfg.Output.Format)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "model.discovery":
		return cfg.Model.Discovery, nil
	case "model.extraction":
		return cfg.Model.Extraction, nil
	case "timeouts.discovery":
		return cfg.Timeouts.Discovery.String(), nil
	case "timeouts.extraction":
		return cfg.Timeouts.Extraction.String(), nil
	case "timeouts.document":
		return cfg.Timeouts.Document.String(), nil
	case "thresholds.low_confidence":
		return strconv.FormatFloat(cfg.Thresholds.LowConfidence, 'g', -1, 64), nil
	case "thresholds.min_fields":
		return strconv.Itoa(cfg.Thresholds.MinFields), nil
	case "thresholds.min_agent_fraction":
		return strconv.FormatFloat(cfg.Thresholds.MinAgentFraction, 'g', -1, 64), nil
	case "storage.db_path":
		return cfg.Storage.DBPath, nil
	case "output.format":
		return cfg.Output.Format, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.use_aws_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_aws_bedrock: %w", err)
		}
		cfg.Anthropic.UseAWSBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "model.discovery":
		cfg.Model.Discovery = value
	case "model.extraction":
		cfg.Model.Extraction = value
	case "timeouts.discovery":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for timeouts.discovery: %w", err)
		}
		cfg.Timeouts.Discovery = d
	case "timeouts.extraction":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for timeouts.extraction: %w", err)
		}
		cfg.Timeouts.Extraction = d
	case "timeouts.document":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for timeouts.document: %w", err)
		}
		cfg.Timeouts.Document = d
	case "thresholds.low_confidence":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for low_confidence: %w", err)
		}
		cfg.Thresholds.LowConfidence = f
	case "thresholds.min_fields":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for min_fields: %w", err)
		}
		cfg.Thresholds.MinFields = n
	case "thresholds.min_agent_fraction":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for min_agent_fraction: %w", err)
		}
		cfg.Thresholds.MinAgentFraction = f
	case "storage.db_path":
		cfg.Storage.DBPath = value
	case "output.format":
		if value != "json" && value != "yaml" {
			return fmt.Errorf("invalid output format %q (want json or yaml)", value)
		}
		cfg.Output.Format = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
