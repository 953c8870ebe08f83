package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Subdirectories created under the data directory.
const (
	ProfilesDir  = "profiles"
	BaselinesDir = "baselines"
)

// Config holds the on-disk location of the engine's records.
type Config struct {
	// DataDir is the root under which profiles/ and baselines/ live.
	// Default: platform specific (see DefaultDataDir).
	DataDir string `yaml:"data_dir" koanf:"dir"`
}

// Validate expands and absolutizes DataDir.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return Invalid("data_dir", "data directory is required")
	}

	if strings.HasPrefix(c.DataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, c.DataDir[2:])
	}

	absPath, err := filepath.Abs(c.DataDir)
	if err != nil {
		return Invalid("data_dir", fmt.Sprintf("invalid path: %v", err))
	}
	c.DataDir = absPath
	return nil
}

// ProfilesPath returns the profiles directory.
func (c *Config) ProfilesPath() string {
	return filepath.Join(c.DataDir, ProfilesDir)
}

// BaselinesPath returns the baselines directory.
func (c *Config) BaselinesPath() string {
	return filepath.Join(c.DataDir, BaselinesDir)
}

// DefaultDataDir returns the default data directory for the current platform.
//
// NETSPECTRE_DATA_DIR overrides everything. Otherwise:
//
//	Linux:   $XDG_DATA_HOME/netspectre or ~/.local/share/netspectre
//	macOS:   ~/Library/Application Support/NetSpectre
//	Windows: %AppData%\NetSpectre
func DefaultDataDir() (string, error) {
	if dir := os.Getenv("NETSPECTRE_DATA_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("AppData")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "NetSpectre"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "NetSpectre"), nil
	default:
		xdgData := os.Getenv("XDG_DATA_HOME")
		if xdgData == "" {
			xdgData = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(xdgData, "netspectre"), nil
	}
}

// DefaultConfig returns a Config rooted at DefaultDataDir.
func DefaultConfig() (*Config, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}
	return &Config{DataDir: dir}, nil
}
