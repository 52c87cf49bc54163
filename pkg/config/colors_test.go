package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadColors(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global")
	local := filepath.Join(dir, "local")
	require.NoError(t, os.WriteFile(global, []byte("color_earning = #ff0000\ncolor_error = #00ff00\n"), 0o600))
	require.NoError(t, os.WriteFile(local, []byte("color_error = #0000ff\ncolor_info =\n"), 0o600))

	t.Run("layers override key by key", func(t *testing.T) {
		colors, err := loadColors(DefaultsFS(), local, global)
		require.NoError(t, err)
		assert.Equal(t, "255,0,0", colors.Earning, "global over embedded")
		assert.Equal(t, "0,0,255", colors.Error, "local over global")
		assert.Equal(t, "189,214,255", colors.Protecting, "embedded default")
		assert.Equal(t, "180,180,180", colors.Info, "empty value keeps the lower layer")
	})

	t.Run("missing files skipped", func(t *testing.T) {
		colors, err := loadColors(DefaultsFS(), filepath.Join(dir, "nope"), "")
		require.NoError(t, err)
		assert.Equal(t, "0,255,0", colors.Earning)
	})

	t.Run("invalid color names the key and layer", func(t *testing.T) {
		bad := filepath.Join(dir, "bad")
		require.NoError(t, os.WriteFile(bad, []byte("color_done = blue"), 0o600))
		_, err := loadColors(DefaultsFS(), bad, global)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "local config")
		assert.Contains(t, err.Error(), "invalid color_done")
	})
}

func Test_hexToRGB(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "#ff0000", want: "255,0,0"},
		{in: "#00ff80", want: "0,255,128"},
		{in: "#ABCDEF", want: "171,205,239"},
		{in: "ff0000", wantErr: true},
		{in: "#fff", wantErr: true},
		{in: "#gggggg", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := hexToRGB(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
