package filters

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Preset is the persisted form of a pipeline: one record per slot, nil for
// an empty slot.
type Preset []*Config

// ParsePresetJSON decodes a JSON array of records or nulls.
func ParsePresetJSON(data []byte) (Preset, error) {
	var preset Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, errors.Wrap(err, "parse preset json")
	}
	return preset, nil
}

// ParsePresetYAML decodes a YAML sequence of mappings or nulls.
func ParsePresetYAML(data []byte) (Preset, error) {
	var preset Preset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return nil, errors.Wrap(err, "parse preset yaml")
	}
	return preset, nil
}

// LoadPreset reads a preset file. Files ending in .yaml or .yml are YAML;
// anything else is JSON.
func LoadPreset(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read preset %s", path)
	}
	if isYAML(path) {
		return ParsePresetYAML(data)
	}
	return ParsePresetJSON(data)
}

// SavePreset writes preset to path in the format implied by its extension.
func SavePreset(path string, preset Preset) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(preset)
	} else {
		data, err = json.MarshalIndent(preset, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "encode preset")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write preset %s", path)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Types returns the type identifier of each entry, "" for empty slots.
func (p Preset) Types() []string {
	types := make([]string, len(p))
	for i, cfg := range p {
		if cfg != nil {
			types[i] = cfg.Type()
		}
	}
	return types
}
