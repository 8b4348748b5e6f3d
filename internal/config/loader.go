package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"xplorer/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir   = ".config/xplorer"
	legacyConfigDir = ".config/x-cli"
	configFileName  = "config.yaml"
	dotenvFileName  = ".env"
)

// UserConfigDir returns the per-user xplorer configuration directory.
func UserConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// DotenvSearchPaths returns the candidate dotenv files in descending
// priority: the user config directory, the legacy x-cli directory, then the
// current working directory.
func DotenvSearchPaths() []string {
	var paths []string
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, userConfigDir, dotenvFileName),
			filepath.Join(homeDir, legacyConfigDir, dotenvFileName),
		)
	}
	return append(paths, dotenvFileName)
}

// ResolveTokenFile returns the token file path, honouring an explicit
// token_file setting.
func (c Config) ResolveTokenFile() (string, error) {
	if c.TokenFile != "" {
		return c.TokenFile, nil
	}
	dir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tokenFileName), nil
}

// LoadDefault loads config.yaml from the user config directory.
func LoadDefault() (Config, error) {
	dir, err := UserConfigDir()
	if err != nil {
		return GetDefaultConfig(), err
	}
	return LoadConfig(filepath.Join(dir, configFileName))
}

// LoadConfig loads configuration from the given config.yaml path. A missing
// file yields the defaults; a malformed or invalid file is an error.
func LoadConfig(configFilePath string) (Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return GetDefaultConfig(), &ConfigurationError{
			FilePath:  configFilePath,
			ErrorType: ErrorTypeIO,
			Message:   err.Error(),
			Err:       err,
		}
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return GetDefaultConfig(), &ConfigurationError{
			FilePath:  configFilePath,
			ErrorType: ErrorTypeParse,
			Message:   err.Error(),
			Err:       err,
		}
	}

	if err := config.Validate(); err != nil {
		return GetDefaultConfig(), &ConfigurationError{
			FilePath:  configFilePath,
			ErrorType: ErrorTypeValidation,
			Message:   err.Error(),
			Err:       err,
		}
	}

	logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}
