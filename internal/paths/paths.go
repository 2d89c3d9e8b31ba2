// Package paths resolves configuration, data directory and campaign file
// locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user directories.
const appName = "campman"

// DefaultCampaignFile is the campaign file name used inside the data
// directory when no path is configured.
const DefaultCampaignFile = "campaign.db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "CAMPMAN_CONFIG_DIR"
	EnvDataDir   = "CAMPMAN_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/campman (fallback ~/.config/campman)
// macOS:   ~/Library/Application Support/campman
// Windows: %APPDATA%/campman
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/campman (fallback ~/.local/share/campman)
// macOS:   ~/Library/Application Support/campman
// Windows: %APPDATA%/campman
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	// macOS and Windows: same as config dir.
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

func xdgDir(env, homeRel string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > CAMPMAN_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns CAMPMAN_DATA_DIR if set, else DefaultDataDir().
func ResolveDataDir() (string, error) {
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

// ResolveCampaign returns the campaign file path following the precedence
// chain: flag > configured value > <data dir>/campaign.db.
//
// configValue is whatever the configuration layer produced for the campaign
// key, which already folds in the CAMPMAN_CAMPAIGN environment variable.
func ResolveCampaign(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	dir, err := ResolveDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultCampaignFile), nil
}
