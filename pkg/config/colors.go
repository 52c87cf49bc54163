package config

import (
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// loadColors reads the color_* keys from the embedded defaults, then globalPath, then localPath.
// each layer overrides the previous one key by key; missing files are skipped.
func loadColors(embedFS embed.FS, localPath, globalPath string) (ColorConfig, error) {
	layers := []struct {
		name string
		read func() ([]byte, error)
	}{
		{"embedded defaults", func() ([]byte, error) { return embedFS.ReadFile("defaults/config") }},
		{"global config", readOptional(globalPath)},
		{"local config", readOptional(localPath)},
	}

	var colors ColorConfig
	for _, l := range layers {
		data, err := l.read()
		if err != nil {
			return ColorConfig{}, fmt.Errorf("read %s: %w", l.name, err)
		}
		if len(data) == 0 {
			continue
		}
		if err := colors.apply(data); err != nil {
			return ColorConfig{}, fmt.Errorf("parse %s: %w", l.name, err)
		}
	}
	return colors, nil
}

// readOptional returns a reader for path that yields nothing when path is empty or missing.
func readOptional(path string) func() ([]byte, error) {
	return func() ([]byte, error) {
		if path == "" {
			return nil, nil
		}
		data, err := os.ReadFile(path) //nolint:gosec // path is built from the config dirs
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return data, err
	}
}

// apply overrides the colors set in data.
func (c *ColorConfig) apply(data []byte) error {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	section := f.Section("")

	fields := []struct {
		key string
		dst *string
	}{
		{"color_protecting", &c.Protecting},
		{"color_earning", &c.Earning},
		{"color_claiming", &c.Claiming},
		{"color_done", &c.Done},
		{"color_warn", &c.Warn},
		{"color_error", &c.Error},
		{"color_timestamp", &c.Timestamp},
		{"color_info", &c.Info},
	}
	for _, fld := range fields {
		if !section.HasKey(fld.key) {
			continue
		}
		val := strings.TrimSpace(section.Key(fld.key).String())
		if val == "" {
			continue
		}
		rgb, err := hexToRGB(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", fld.key, err)
		}
		*fld.dst = rgb
	}
	return nil
}

// hexToRGB converts "#rrggbb" into the "r,g,b" form the progress palette reads.
func hexToRGB(s string) (string, error) {
	digits, ok := strings.CutPrefix(s, "#")
	if !ok || len(digits) != 6 {
		return "", fmt.Errorf("want #rrggbb, got %q", s)
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return "", fmt.Errorf("bad hex digits in %q: %w", s, err)
	}
	return fmt.Sprintf("%d,%d,%d", b[0], b[1], b[2]), nil
}
