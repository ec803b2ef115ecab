//go:build darwin

package config

import (
	"os"
	"path/filepath"
)

func defaultDataDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "Library", "Application Support", "docvault")
	}
	return "docvault-data"
}

// configFilePath honours XDG_CONFIG_HOME when set so the same dotfiles work
// across platforms.
func configFilePath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "docvault", "config.json")
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "Library", "Application Support", "docvault", "config.json")
	}
	return "docvault.json"
}
