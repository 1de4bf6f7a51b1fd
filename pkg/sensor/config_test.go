package sensor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/apsystems-sensor/pkg/types"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{Kind: types.ReadingWatts, UserID: "1", Info: types.AccessoryInfo{Lux: types.DefaultLuxBounds}}
	require.NoError(t, valid.Validate())

	tests := map[string]func(c *Config){
		"Unknown Kind":       func(c *Config) { c.Kind = "lux" },
		"Session No Creds":   func(c *Config) { c.UserID = "" },
		"Legacy Without ECU": func(c *Config) { c.Legacy = true },
		"Inverted Lux":       func(c *Config) { c.Info.Lux = types.LuxBounds{Min: 10, Max: 1} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	t.Run("Legacy With ECU", func(t *testing.T) {
		c := Config{Kind: types.ReadingKwh, Legacy: true, ECUID: "216"}
		assert.NoError(t, c.Validate())
		assert.Equal(t, types.ModeLegacy, c.Mode())
	})

	t.Run("Login URL Only", func(t *testing.T) {
		c := Config{Kind: types.ReadingKwh, LoginURL: "https://example.com/login"}
		assert.NoError(t, c.Validate())
		assert.Equal(t, types.ModeSession, c.Mode())
	})
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accessory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Garage Roof
serial: "216000012345"
kind: kwh
legacy: true
ecuId: "216000012345"
lux:
  min: 0
  max: 50
`), 0o600))

	c := Config{
		Info:   types.AccessoryInfo{Name: "Solar", Manufacturer: "APsystems", Lux: types.DefaultLuxBounds},
		Kind:   types.ReadingWatts,
		UserID: "42",
	}
	require.NoError(t, c.ApplyFile(path))

	assert.Equal(t, "Garage Roof", c.Info.Name)
	assert.Equal(t, "APsystems", c.Info.Manufacturer, "absent keys keep the flag value")
	assert.Equal(t, "216000012345", c.Info.Serial)
	assert.Equal(t, types.ReadingKwh, c.Kind)
	assert.True(t, c.Legacy)
	assert.Equal(t, "216000012345", c.ECUID)
	assert.Equal(t, "42", c.UserID)
	assert.Equal(t, types.LuxBounds{Min: 0, Max: 50}, c.Info.Lux)
	assert.NoError(t, c.Validate())
}

func TestApplyFileErrors(t *testing.T) {
	c := Config{}
	assert.Error(t, c.ApplyFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unterminated"), 0o600))
	assert.Error(t, c.ApplyFile(path))

	path = filepath.Join(t.TempDir(), "kind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: lumens\nuserId: \"1\"\n"), 0o600))
	require.NoError(t, c.ApplyFile(path))
	assert.Equal(t, types.ReadingKind("lumens"), c.Kind)
	assert.Error(t, c.Validate())
}
