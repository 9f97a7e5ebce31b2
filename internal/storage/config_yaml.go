package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFileName = "settings.yaml"

// AppConfig contains app-level preferences, separate from the per-session
// breathing settings.
type AppConfig struct {
	SoundEnabled bool
	Verbose      bool
	StepRate     int // animation steps per second
}

type yamlConfig struct {
	SoundEnabled *bool `yaml:"sound_enabled"`
	Verbose      bool  `yaml:"verbose"`
	StepRate     int   `yaml:"animation_step_rate"`
}

// DefaultAppConfig returns the defaults used when no config file exists.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		SoundEnabled: true,
		Verbose:      false,
		StepRate:     30,
	}
}

// LoadAppConfig reads app preferences from YAML in dir. A missing file
// yields the defaults.
func LoadAppConfig(dir string) (AppConfig, error) {
	config := DefaultAppConfig()

	rawData, err := os.ReadFile(filepath.Join(dir, configFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return config, fmt.Errorf("read config file: %w", err)
	}

	var fileData yamlConfig
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return config, fmt.Errorf("parse config yaml: %w", err)
	}

	applyYamlConfig(&config, fileData)
	return config, nil
}

// SaveAppConfig writes app preferences to YAML in dir.
func SaveAppConfig(dir string, config AppConfig) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	soundEnabled := config.SoundEnabled
	fileData := yamlConfig{
		SoundEnabled: &soundEnabled,
		Verbose:      config.Verbose,
		StepRate:     config.StepRate,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, configFileName), serialized, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func applyYamlConfig(config *AppConfig, fileData yamlConfig) {
	if fileData.SoundEnabled != nil {
		config.SoundEnabled = *fileData.SoundEnabled
	}
	config.Verbose = fileData.Verbose

	// Step rates outside 10..60 are either visibly choppy or pure timer
	// churn; keep the default instead.
	if fileData.StepRate >= 10 && fileData.StepRate <= 60 {
		config.StepRate = fileData.StepRate
	}
}
