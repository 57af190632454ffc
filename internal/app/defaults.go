package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// GetDefaults returns application default paths, checking environment
// variables first. A .env file in the working directory is loaded
// before the lookup, so deployments can keep their overrides there.
//
// Environment variables:
//   - ARPA_CONFIG_PATH: config file location (default: ~/.config/arpa.toml)
//   - ARPA_HOME: base directory for arpa data (default: ~/.local/share/arpa)
//   - ARPA_DATABASE_URL: overrides the configured database URL
func GetDefaults() (map[string]string, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("ARPA_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "arpa.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("ARPA_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "arpa"), nil
}
