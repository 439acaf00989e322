package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvr-ai/filterbox/filters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, filters.DefaultSlots, cfg.Pipeline.Slots)
	assert.Equal(t, 5, cfg.Puzzle.Tolerance)
	assert.True(t, cfg.Capture.Mirror)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
log:
  level: debug
capture:
  mirror: false
  fps: 30
pipeline:
  extended: true
  filters:
    - type: blur
      intensity: 4
    - null
    - type: colorFade
puzzle:
  max_secret_filters: 2
server:
  addr: 127.0.0.1:9000
  read_timeout: 3s
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Capture.Mirror)
	assert.Equal(t, 640, cfg.Capture.Width, "unset fields keep their defaults")
	assert.Equal(t, 30.0, cfg.Capture.FPS)
	assert.Equal(t, 2, cfg.Puzzle.MaxSecretFilters)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 1920*1080, cfg.Server.MaxTargetPixels)

	assert.True(t, cfg.Catalog().Has(filters.KindColorFade))
	preset, err := cfg.InitialPreset()
	require.NoError(t, err)
	assert.Equal(t, []string{"blur", "", "colorFade"}, preset.Types())
	assert.Equal(t, 4.0, preset[0].Params["intensity"])
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []string{
		"pipeline: {slots: 0}",
		"puzzle: {tolerance: 0}",
		"puzzle: {max_secret_filters: -1}",
		"capture: {fps: -2}",
		"pipeline: {slots: 1, filters: [{type: blur}, {type: invert}]}",
		"log: [",
		"capture: {resolution: 8k}",
		"server: {max_target_pixels: 0}",
	}
	for _, data := range cases {
		_, err := Parse([]byte(data))
		assert.Error(t, err, data)
	}
}

func TestLoadPresetFile(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "preset.json")
	require.NoError(t, os.WriteFile(presetPath, []byte(`[{"type": "mirror"}, {"type": "edgeDetect", "threshold": 80}]`), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("pipeline:\n  preset: "+presetPath+"\n"), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.False(t, cfg.Catalog().Has(filters.KindColorFade))

	preset, err := cfg.InitialPreset()
	require.NoError(t, err)
	assert.Equal(t, []string{"mirror", "edgeDetect"}, preset.Types())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParseNamedResolution(t *testing.T) {
	cfg, err := Parse([]byte("capture: {resolution: 720p, width: 10, height: 10}"))
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Capture.Width)
	assert.Equal(t, 720, cfg.Capture.Height)
}
