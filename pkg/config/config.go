// Package config loads royaltydemo settings from ini files. embedded defaults are merged
// with the global config dir and an optional project-local .royaltydemo dir, local wins.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ipkit/royaltydemo/pkg/sequencer"
)

//go:embed defaults/config
var defaultsFS embed.FS

// localDirName is the project-local config directory looked up in the working directory.
const localDirName = ".royaltydemo"

// DefaultsFS returns the embedded defaults filesystem.
func DefaultsFS() embed.FS {
	return defaultsFS
}

// Config is the merged configuration.
type Config struct {
	Values
	Colors ColorConfig

	configDir string
	localDir  string
}

// ColorConfig holds terminal colors as "r,g,b" strings, parsed from #rrggbb config values.
type ColorConfig struct {
	Protecting string
	Earning    string
	Claiming   string
	Done       string
	Warn       string
	Error      string
	Timestamp  string
	Info       string
}

// DefaultConfigDir returns ~/.config/royaltydemo.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "royaltydemo")
	}
	return filepath.Join(home, ".config", "royaltydemo")
}

// Load installs defaults into configDir if needed and loads the merged configuration.
// empty configDir uses DefaultConfigDir. a .royaltydemo directory in the working
// directory overrides the global config.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	localDir := ""
	if st, err := os.Stat(localDirName); err == nil && st.IsDir() {
		if abs, absErr := filepath.Abs(localDirName); absErr == nil {
			localDir = abs
		}
	}
	return loadWithLocal(configDir, localDir)
}

// loadWithLocal loads configuration from globalDir and an optional localDir.
func loadWithLocal(globalDir, localDir string) (*Config, error) {
	// resolve symlinks so a linked config dir behaves like a real one
	if resolved, err := filepath.EvalSymlinks(globalDir); err == nil {
		globalDir = resolved
	}

	if err := newDefaultsInstaller(defaultsFS).Install(globalDir); err != nil {
		return nil, fmt.Errorf("install defaults: %w", err)
	}

	globalConfig := filepath.Join(globalDir, "config")
	localConfig := ""
	if localDir != "" {
		localConfig = filepath.Join(localDir, "config")
	}

	values, err := newValuesLoader(defaultsFS).Load(localConfig, globalConfig)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}

	colors, err := loadColors(defaultsFS, localConfig, globalConfig)
	if err != nil {
		return nil, fmt.Errorf("load colors: %w", err)
	}

	return &Config{Values: values, Colors: colors, configDir: globalDir, localDir: localDir}, nil
}

// ConfigDir returns the global config directory.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// LocalDir returns the project-local config directory, empty if none.
func (c *Config) LocalDir() string {
	return c.localDir
}

// ThemeFile returns the path of the saved theme preference.
func (c *Config) ThemeFile() string {
	return filepath.Join(c.configDir, "theme")
}

// Timings returns the sequencer durations.
func (c *Config) Timings() sequencer.Timings {
	return sequencer.Timings{
		Protecting:         ms(c.ProtectingMs),
		Protected:          ms(c.ProtectedMs),
		OpenDuration:       ms(c.OpenDurationMs),
		CommercialDuration: ms(c.CommercialDurationMs),
		EventDisplay:       ms(c.EventDisplayMs),
	}
}

// UploadAdvance returns the delay between a successful upload and the license step.
func (c *Config) UploadAdvance() time.Duration {
	return ms(c.UploadAdvanceMs)
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
