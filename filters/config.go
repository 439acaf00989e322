package filters

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// typeField is the key binding a persisted record to its kernel.
const typeField = "type"

// Config is one filter instance: a kernel kind plus its numeric parameters.
//
// A Config is exclusively owned by the slot that holds it. Parameters are
// edited in place by the user and, for stateful kernels such as colorFade,
// by every application. Use Clone whenever an instance must not share state.
type Config struct {
	// Kind is the kernel this instance runs.
	Kind Kind
	// Params holds kernel-specific values such as "intensity" or "radius".
	Params map[string]float64

	// rawType preserves an unrecognised type identifier so it survives a
	// round trip; such instances are skipped when applied.
	rawType string
}

// NewConfig creates an instance of kind with the given parameters (copied).
func NewConfig(kind Kind, params map[string]float64) *Config {
	c := &Config{Kind: kind, Params: make(map[string]float64, len(params))}
	for k, v := range params {
		c.Params[k] = v
	}
	return c
}

// Type returns the wire identifier of the instance.
func (c *Config) Type() string {
	if c.Kind == KindUnknown {
		return c.rawType
	}
	return c.Kind.String()
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := NewConfig(c.Kind, c.Params)
	clone.rawType = c.rawType
	return clone
}

// Float returns the named parameter, or def when it is absent or not finite.
func (c *Config) Float(name string, def float64) float64 {
	v, ok := c.Params[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Set stores a parameter value.
func (c *Config) Set(name string, v float64) {
	if c.Params == nil {
		c.Params = make(map[string]float64)
	}
	c.Params[name] = v
}

// record flattens the instance into its wire shape {type, ...params}.
func (c *Config) record() map[string]interface{} {
	rec := make(map[string]interface{}, len(c.Params)+1)
	for k, v := range c.Params {
		rec[k] = v
	}
	rec[typeField] = c.Type()
	return rec
}

// fromRecord fills the instance from a decoded wire record. Non-numeric
// parameter values are dropped so the kernel falls back to its defaults.
func (c *Config) fromRecord(rec map[string]interface{}) error {
	raw, ok := rec[typeField]
	if !ok {
		return errors.New("filter record has no type")
	}
	id, ok := raw.(string)
	if !ok {
		return errors.Errorf("filter record type is %T, want string", raw)
	}

	kind, known := ParseKind(id)
	c.Kind = kind
	c.rawType = ""
	if !known {
		c.rawType = id
	}

	c.Params = make(map[string]float64, len(rec)-1)
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == typeField {
			continue
		}
		var f float64
		switch v := rec[k].(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		case int:
			f = float64(v)
		case int64:
			f = float64(v)
		case uint64:
			f = float64(v)
		default:
			continue
		}
		// NaN and infinities cannot be re-encoded as JSON.
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		c.Params[k] = f
	}
	return nil
}

// MarshalJSON encodes the instance as {"type": id, ...params}.
func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.record())
}

// UnmarshalJSON decodes {"type": id, ...params}.
func (c *Config) UnmarshalJSON(data []byte) error {
	var rec map[string]interface{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return errors.Wrap(err, "decode filter record")
	}
	return c.fromRecord(rec)
}

// MarshalYAML encodes the instance as a mapping with a type key.
func (c *Config) MarshalYAML() (interface{}, error) {
	return c.record(), nil
}

// UnmarshalYAML decodes a mapping with a type key.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var rec map[string]interface{}
	if err := node.Decode(&rec); err != nil {
		return errors.Wrap(err, "decode filter record")
	}
	return c.fromRecord(rec)
}
