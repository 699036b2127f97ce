package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - JOURNAL_CONFIG_PATH: config file location (default: ~/.config/journal.toml)
//   - JOURNAL_HOME: base directory for journal data (default: ~/.local/share/journal)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path":  configPath,
		"base_dir":     baseDir,
		"log_dir":      filepath.Join(baseDir, "log"),
		"projects_dir": filepath.Join(baseDir, "projects"),
	}, nil
}

// getConfigPath returns the config file path, checking JOURNAL_CONFIG_PATH env var first,
// then falling back to the default ~/.config/journal.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("JOURNAL_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "journal.toml"), nil
}

// getBaseDir returns the base directory for journal data, checking JOURNAL_HOME env var first,
// then falling back to the XDG default ~/.local/share/journal.
func getBaseDir() (string, error) {
	if path := os.Getenv("JOURNAL_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "journal"), nil
}
