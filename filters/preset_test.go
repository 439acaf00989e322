package filters

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePresetJSON(t *testing.T) {
	preset, err := ParsePresetJSON([]byte(`[
		{"type": "blur", "intensity": 3},
		null,
		{"type": "swirl", "radius": 80, "angle": "wide"},
		{"type": "sepia", "amount": 1}
	]`))
	require.NoError(t, err)
	require.Len(t, preset, 4)

	assert.Equal(t, KindBlur, preset[0].Kind)
	assert.Equal(t, 3.0, preset[0].Params["intensity"])
	assert.Nil(t, preset[1])
	assert.Equal(t, KindSpiral, preset[2].Kind)
	assert.Equal(t, map[string]float64{"radius": 80}, preset[2].Params)
	assert.Equal(t, KindUnknown, preset[3].Kind)
	assert.Equal(t, "sepia", preset[3].Type())
}

func TestParsePresetJSONRejectsMissingType(t *testing.T) {
	_, err := ParsePresetJSON([]byte(`[{"intensity": 3}]`))
	assert.Error(t, err)
	_, err = ParsePresetJSON([]byte(`[{"type": 7}]`))
	assert.Error(t, err)
}

func TestConfigJSONShape(t *testing.T) {
	data, err := json.Marshal(NewConfig(KindEdgeDetect, map[string]float64{"threshold": 60}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "edgeDetect", "threshold": 60}`, string(data))

	data, err = json.Marshal(Preset{nil, &Config{rawType: "sepia", Params: map[string]float64{}}})
	require.NoError(t, err)
	assert.JSONEq(t, `[null, {"type": "sepia"}]`, string(data))
}

func TestParsePresetYAML(t *testing.T) {
	preset, err := ParsePresetYAML([]byte(`
- type: pixelate
  pixelSize: 12
- null
- type: invert
  invertStrength: 0.5
`))
	require.NoError(t, err)
	require.Len(t, preset, 3)
	assert.Equal(t, 12.0, preset[0].Params["pixelSize"])
	assert.Nil(t, preset[1])
	assert.Equal(t, 0.5, preset[2].Params["invertStrength"])
}

func TestParsePresetYAMLDropsNonFiniteParams(t *testing.T) {
	preset, err := ParsePresetYAML([]byte(`
- type: blur
  intensity: .nan
  radius: .inf
  floor: -.inf
  x: 2
`))
	require.NoError(t, err)
	require.Len(t, preset, 1)
	assert.Equal(t, map[string]float64{"x": 2}, preset[0].Params)

	_, err = json.Marshal(preset)
	assert.NoError(t, err)
}

func TestSaveAndLoadPreset(t *testing.T) {
	preset := Preset{
		NewConfig(KindSpiral, map[string]float64{"radius": 90, "angle": 1.5}),
		nil,
		NewConfig(KindGrayscale, nil),
	}
	dir := t.TempDir()

	for _, name := range []string{"preset.json", "preset.yaml", "preset.yml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SavePreset(path, preset), name)

		loaded, err := LoadPreset(path)
		require.NoError(t, err, name)
		assert.Equal(t, preset.Types(), loaded.Types(), name)
		assert.Equal(t, preset[0].Params, loaded[0].Params, name)
	}

	_, err := LoadPreset(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
