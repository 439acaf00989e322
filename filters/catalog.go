package filters

import (
	"math"

	"github.com/nvr-ai/filterbox/images"
	"github.com/nvr-ai/filterbox/images/kernels"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a filter identifier is not in the catalog.
var ErrNotFound = errors.New("filter not found")

// Param describes a user-editable numeric parameter and the range a control
// for it should offer.
type Param struct {
	Name    string  `json:"name" yaml:"name"`
	Label   string  `json:"label" yaml:"label"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Step    float64 `json:"step" yaml:"step"`
	Default float64 `json:"default" yaml:"default"`
	Integer bool    `json:"integer" yaml:"integer"`
}

// Clamp limits v to the parameter range and snaps it to the step grid
// anchored at Min. Non-finite values become the default.
func (p Param) Clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return p.Default
	}
	v = math.Max(p.Min, math.Min(p.Max, v))
	if p.Step > 0 {
		v = p.Min + math.Round((v-p.Min)/p.Step)*p.Step
		v = math.Max(p.Min, math.Min(p.Max, v))
	}
	if p.Integer {
		v = math.Round(v)
	}
	return v
}

// applyFunc runs a kernel on img with cfg's parameters. It may write state
// back into cfg.
type applyFunc func(img *images.Image, cfg *Config, pool *kernels.Pool)

// Definition is an immutable catalog entry.
type Definition struct {
	Kind   Kind    `json:"-" yaml:"-"`
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Emoji  string  `json:"emoji" yaml:"emoji"`
	Params []Param `json:"params" yaml:"params"`

	defaults map[string]float64
	apply    applyFunc
}

// DefaultConfig returns a fresh instance populated with the definition's
// defaults. Its type always equals the definition's ID.
func (d *Definition) DefaultConfig() *Config {
	return NewConfig(d.Kind, d.defaults)
}

// Param returns the descriptor for name.
func (d *Definition) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

const (
	defaultInvertStrength = 1.0
	defaultPixelSize      = 8
	defaultBlurIntensity  = 1
	defaultSpiralRadius   = 150.0
	defaultSpiralAngle    = 2.0
	defaultEdgeThreshold  = 50.0
	defaultFadeSpeed      = 0.05
)

// builtins holds every kernel the package knows, indexed by Kind.
var builtins = [kindCount]*Definition{
	KindInvert: {
		Name: "Invert", Emoji: "🔃",
		Params:   []Param{{Name: "invertStrength", Label: "Strength", Min: 0, Max: 1, Step: 0.01, Default: defaultInvertStrength}},
		defaults: map[string]float64{"invertStrength": defaultInvertStrength},
		apply: func(img *images.Image, cfg *Config, _ *kernels.Pool) {
			kernels.Invert(img, cfg.Float("invertStrength", defaultInvertStrength))
		},
	},
	KindGrayscale: {
		Name: "Grayscale", Emoji: "⚫️",
		apply: func(img *images.Image, _ *Config, _ *kernels.Pool) { kernels.Grayscale(img) },
	},
	KindNoRed: {
		Name: "No Red", Emoji: "🔴",
		apply: func(img *images.Image, _ *Config, _ *kernels.Pool) { kernels.RemoveChannel(img, kernels.Red) },
	},
	KindNoGreen: {
		Name: "No Green", Emoji: "🟢",
		apply: func(img *images.Image, _ *Config, _ *kernels.Pool) { kernels.RemoveChannel(img, kernels.Green) },
	},
	KindNoBlue: {
		Name: "No Blue", Emoji: "🔵",
		apply: func(img *images.Image, _ *Config, _ *kernels.Pool) { kernels.RemoveChannel(img, kernels.Blue) },
	},
	KindComicBook: {
		Name: "Comic Book", Emoji: "📕",
		apply: func(img *images.Image, _ *Config, _ *kernels.Pool) { kernels.ComicBook(img) },
	},
	KindPixelate: {
		Name: "Pixelate", Emoji: "🔲",
		Params:   []Param{{Name: "pixelSize", Label: "Pixel Size", Min: 1, Max: 50, Step: 1, Default: defaultPixelSize, Integer: true}},
		defaults: map[string]float64{"pixelSize": defaultPixelSize},
		apply: func(img *images.Image, cfg *Config, _ *kernels.Pool) {
			kernels.Pixelate(img, intParam(cfg, "pixelSize", defaultPixelSize, img))
		},
	},
	KindBlur: {
		Name: "Blur", Emoji: "💧",
		Params:   []Param{{Name: "intensity", Label: "Intensity", Min: 1, Max: 10, Step: 1, Default: defaultBlurIntensity, Integer: true}},
		defaults: map[string]float64{"intensity": defaultBlurIntensity},
		apply: func(img *images.Image, cfg *Config, pool *kernels.Pool) {
			kernels.BoxBlur(img, intParam(cfg, "intensity", defaultBlurIntensity, img), pool)
		},
	},
	KindSpiral: {
		Name: "Spiral", Emoji: "🌀",
		Params: []Param{
			{Name: "radius", Label: "Radius", Min: 0, Max: 300, Step: 1, Default: defaultSpiralRadius, Integer: true},
			{Name: "angle", Label: "Angle", Min: 0, Max: 5, Step: 0.1, Default: defaultSpiralAngle},
		},
		defaults: map[string]float64{"radius": defaultSpiralRadius, "angle": defaultSpiralAngle},
		apply: func(img *images.Image, cfg *Config, pool *kernels.Pool) {
			kernels.Swirl(img,
				cfg.Float("radius", defaultSpiralRadius),
				cfg.Float("angle", defaultSpiralAngle),
				pool)
		},
	},
	KindMirror: {
		Name: "Mirror", Emoji: "🪞",
		apply: func(img *images.Image, _ *Config, _ *kernels.Pool) { kernels.Mirror(img) },
	},
	KindEdgeDetect: {
		Name: "Edge Detect", Emoji: "✏️",
		Params:   []Param{{Name: "threshold", Label: "Threshold", Min: 0, Max: 255, Step: 1, Default: defaultEdgeThreshold, Integer: true}},
		defaults: map[string]float64{"threshold": defaultEdgeThreshold},
		apply: func(img *images.Image, cfg *Config, pool *kernels.Pool) {
			kernels.EdgeDetect(img, cfg.Float("threshold", defaultEdgeThreshold), pool)
		},
	},
	KindColorFade: {
		Name: "Color Fade", Emoji: "🌈",
		Params:   []Param{{Name: "speed", Label: "Speed", Min: 0, Max: 0.5, Step: 0.01, Default: defaultFadeSpeed}},
		defaults: map[string]float64{"speed": defaultFadeSpeed, "phase": 0},
		apply: func(img *images.Image, cfg *Config, _ *kernels.Pool) {
			phase := cfg.Float("phase", 0) + cfg.Float("speed", defaultFadeSpeed)
			cfg.Set("phase", phase)
			kernels.ColorFade(img, phase)
		},
	},
}

func init() {
	for k := KindInvert; k < kindCount; k++ {
		d := builtins[k]
		d.Kind = k
		d.ID = k.String()
		if d.Params == nil {
			d.Params = []Param{}
		}
		if d.defaults == nil {
			d.defaults = map[string]float64{}
		}
	}
}

// intParam reads an integer size parameter. Values below 1 (and absent or
// non-finite ones) fall back to def; values are floored and capped at the
// larger image dimension, past which every kernel output is identical.
func intParam(cfg *Config, name string, def int, img *images.Image) int {
	v := cfg.Float(name, float64(def))
	if v < 1 {
		return def
	}
	limit := max(img.Width, img.Height, def)
	if v >= float64(limit) {
		return limit
	}
	return int(math.Floor(v))
}

// Catalog is the read-only set of filters available to a pipeline. It is
// safe for concurrent use.
type Catalog struct {
	defs  [kindCount]*Definition
	order []Kind
	pool  *kernels.Pool
}

// NewCatalog builds a catalog exposing the given kinds in order.
func NewCatalog(kinds ...Kind) *Catalog {
	c := &Catalog{pool: &kernels.Pool{}}
	for _, k := range kinds {
		if k <= KindUnknown || k >= kindCount || c.defs[k] != nil {
			continue
		}
		c.defs[k] = builtins[k]
		c.order = append(c.order, k)
	}
	return c
}

// DefaultCatalog returns the eleven filters offered by the sandbox.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		KindInvert, KindGrayscale, KindNoRed, KindNoGreen, KindNoBlue,
		KindComicBook, KindPixelate, KindBlur, KindSpiral, KindMirror,
		KindEdgeDetect,
	)
}

// ExtendedCatalog returns the default filters plus the animated colorFade.
func ExtendedCatalog() *Catalog {
	c := DefaultCatalog()
	c.defs[KindColorFade] = builtins[KindColorFade]
	c.order = append(c.order, KindColorFade)
	return c
}

// Lookup returns the definition for id.
func (c *Catalog) Lookup(id string) (*Definition, error) {
	k, ok := ParseKind(id)
	if !ok || c.defs[k] == nil {
		return nil, errors.Wrapf(ErrNotFound, "id %q", id)
	}
	return c.defs[k], nil
}

// Has reports whether kind is in the catalog.
func (c *Catalog) Has(k Kind) bool {
	return k > KindUnknown && k < kindCount && c.defs[k] != nil
}

// Definitions returns the entries in catalog order.
func (c *Catalog) Definitions() []*Definition {
	defs := make([]*Definition, 0, len(c.order))
	for _, k := range c.order {
		defs = append(defs, c.defs[k])
	}
	return defs
}

// IDs returns the filter identifiers in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.order))
	for _, k := range c.order {
		ids = append(ids, k.String())
	}
	return ids
}

// Apply runs cfg's kernel on img in place. It reports false, leaving img
// untouched, when cfg is nil or its kind is not in the catalog.
func (c *Catalog) Apply(img *images.Image, cfg *Config) bool {
	if cfg == nil || !c.Has(cfg.Kind) {
		return false
	}
	c.defs[cfg.Kind].apply(img, cfg, c.pool)
	return true
}
