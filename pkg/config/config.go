// Package config provides configuration loading and management for dicomstack.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input parameters
	Input struct {
		// Extension is the file-name substring used to select slice files,
		// matched case-insensitively
		Extension string `yaml:"extension"`

		// SingleRandom loads one file chosen at random from the matched set
		SingleRandom bool `yaml:"singleRandom"`
	} `yaml:"input"`

	// Tags parameters
	Tags struct {
		// Populate lists the DICOM keywords indexed on load, beyond the
		// series and placement tags that are always indexed
		Populate []string `yaml:"populate"`
	} `yaml:"tags"`

	// QA parameters
	QA struct {
		// SpacingTolerance is the relative spread of inter-slice gaps still
		// considered uniform
		SpacingTolerance float64 `yaml:"spacingTolerance"`
	} `yaml:"qa"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.Extension = "dcm"
	cfg.Input.SingleRandom = false

	cfg.Tags.Populate = []string{"Modality", "SliceThickness", "ScanOptions"}

	cfg.QA.SpacingTolerance = 0.01

	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
