package filters

import (
	"sort"

	"github.com/nvr-ai/filterbox/images"
	"github.com/nvr-ai/filterbox/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultSlots is the number of slots in a sandbox pipeline.
const DefaultSlots = 4

var (
	// ErrSlotOutOfRange is returned for slot indices outside [0, Len()).
	ErrSlotOutOfRange = errors.New("slot out of range")
	// ErrUnknownParam is returned when editing a parameter the slot's filter
	// does not declare.
	ErrUnknownParam = errors.New("unknown filter parameter")
	// ErrEmptySlot is returned when editing an empty slot.
	ErrEmptySlot = errors.New("slot is empty")
)

// Pipeline is an ordered, fixed-capacity sequence of optional filter
// instances applied in index order.
//
// A Pipeline is not safe for concurrent use. Two pipelines never share
// instances, so independent pipelines may run concurrently on separate
// buffers.
type Pipeline struct {
	catalog *Catalog
	slots   []*Config
	logger  logrus.FieldLogger
}

// NewPipeline creates an empty pipeline with capacity slots (DefaultSlots
// when capacity < 1) resolving kernels in catalog.
//
// Arguments:
//   - catalog: The filters the pipeline may run. Nil means DefaultCatalog.
//   - capacity: The number of slots.
//   - logger: Receives debug output for skipped slots. Nil discards.
//
// Returns:
//   - *Pipeline: The empty pipeline.
func NewPipeline(catalog *Catalog, capacity int, logger logrus.FieldLogger) *Pipeline {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if capacity < 1 {
		capacity = DefaultSlots
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{
		catalog: catalog,
		slots:   make([]*Config, capacity),
		logger:  logger,
	}
}

// Catalog returns the catalog the pipeline resolves kernels in.
func (p *Pipeline) Catalog() *Catalog {
	return p.catalog
}

// Len returns the slot capacity.
func (p *Pipeline) Len() int {
	return len(p.slots)
}

func (p *Pipeline) check(i int) error {
	if i < 0 || i >= len(p.slots) {
		return errors.Wrapf(ErrSlotOutOfRange, "slot %d of %d", i, len(p.slots))
	}
	return nil
}

// Slot returns the live instance in slot i, or nil when the slot is empty.
// Edits to the returned instance take effect on the next Apply.
func (p *Pipeline) Slot(i int) (*Config, error) {
	if err := p.check(i); err != nil {
		return nil, err
	}
	return p.slots[i], nil
}

// Assign places filter id in slot i.
//
// If the slot already holds an instance of the same kind it is kept with its
// edited parameters; otherwise the slot receives a fresh copy of the
// filter's default configuration.
//
// Arguments:
//   - i: The slot index.
//   - id: The filter identifier.
//
// Returns:
//   - *Config: The instance now in the slot.
//   - error: ErrSlotOutOfRange or ErrNotFound.
func (p *Pipeline) Assign(i int, id string) (*Config, error) {
	if err := p.check(i); err != nil {
		return nil, err
	}
	def, err := p.catalog.Lookup(id)
	if err != nil {
		return nil, err
	}
	if cur := p.slots[i]; cur != nil && cur.Kind == def.Kind {
		return cur, nil
	}
	p.slots[i] = def.DefaultConfig()
	return p.slots[i], nil
}

// Set stores a copy of cfg in slot i, or empties the slot when cfg is nil.
func (p *Pipeline) Set(i int, cfg *Config) error {
	if err := p.check(i); err != nil {
		return err
	}
	p.slots[i] = cfg.Clone()
	return nil
}

// Move transfers the instance in slot from to slot to, replacing whatever
// was there, and empties slot from. Moving an empty slot is a no-op.
func (p *Pipeline) Move(from, to int) error {
	if err := p.check(from); err != nil {
		return err
	}
	if err := p.check(to); err != nil {
		return err
	}
	if from == to || p.slots[from] == nil {
		return nil
	}
	p.slots[to] = p.slots[from]
	p.slots[from] = nil
	return nil
}

// Swap exchanges the contents of slots i and j.
func (p *Pipeline) Swap(i, j int) error {
	if err := p.check(i); err != nil {
		return err
	}
	if err := p.check(j); err != nil {
		return err
	}
	p.slots[i], p.slots[j] = p.slots[j], p.slots[i]
	return nil
}

// Remove empties slot i.
func (p *Pipeline) Remove(i int) error {
	if err := p.check(i); err != nil {
		return err
	}
	p.slots[i] = nil
	return nil
}

// Clear empties every slot.
func (p *Pipeline) Clear() {
	for i := range p.slots {
		p.slots[i] = nil
	}
}

// SetParam edits a declared parameter of the instance in slot i. The value
// is clamped to the parameter's range.
//
// Returns:
//   - float64: The value stored after clamping.
//   - error: ErrSlotOutOfRange, ErrEmptySlot, ErrNotFound or ErrUnknownParam.
func (p *Pipeline) SetParam(i int, name string, value float64) (float64, error) {
	if err := p.check(i); err != nil {
		return 0, err
	}
	cfg := p.slots[i]
	if cfg == nil {
		return 0, errors.Wrapf(ErrEmptySlot, "slot %d", i)
	}
	def, err := p.catalog.Lookup(cfg.Type())
	if err != nil {
		return 0, err
	}
	param, ok := def.Param(name)
	if !ok {
		return 0, errors.Wrapf(ErrUnknownParam, "%s has no %q", def.ID, name)
	}
	v := param.Clamp(value)
	cfg.Set(name, v)
	return v, nil
}

// SetParams clamps and stores several parameters of the instance in slot i.
// Every name is checked before any value is written, so an unknown name
// leaves the slot unchanged.
func (p *Pipeline) SetParams(i int, values map[string]float64) (*Config, error) {
	if err := p.check(i); err != nil {
		return nil, err
	}
	cfg := p.slots[i]
	if cfg == nil {
		return nil, errors.Wrapf(ErrEmptySlot, "slot %d", i)
	}
	def, err := p.catalog.Lookup(cfg.Type())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	params := make([]Param, len(names))
	for k, name := range names {
		param, ok := def.Param(name)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownParam, "%s has no %q", def.ID, name)
		}
		params[k] = param
	}
	for k, name := range names {
		cfg.Set(name, params[k].Clamp(values[name]))
	}
	return cfg, nil
}

// Empty reports whether every slot is empty.
func (p *Pipeline) Empty() bool {
	for _, cfg := range p.slots {
		if cfg != nil {
			return false
		}
	}
	return true
}

// Apply runs each occupied slot's kernel on img in index order, mutating it
// in place. Slots whose type is not in the catalog are skipped.
func (p *Pipeline) Apply(img *images.Image) {
	for i, cfg := range p.slots {
		if cfg == nil {
			continue
		}
		if !p.catalog.Apply(img, cfg) {
			p.logger.WithFields(logrus.Fields{
				"slot": i,
				"type": cfg.Type(),
			}).Debug("skipping unknown filter")
		}
	}
}

// Preset returns a deep copy of the slot contents.
func (p *Pipeline) Preset() Preset {
	preset := make(Preset, len(p.slots))
	for i, cfg := range p.slots {
		preset[i] = cfg.Clone()
	}
	return preset
}

// Load replaces the slot contents with copies of preset's entries. Slots
// past the end of preset are emptied.
func (p *Pipeline) Load(preset Preset) error {
	if len(preset) > len(p.slots) {
		return errors.Wrapf(ErrSlotOutOfRange, "preset has %d entries, pipeline has %d slots",
			len(preset), len(p.slots))
	}
	p.Clear()
	for i, cfg := range preset {
		p.slots[i] = cfg.Clone()
	}
	return nil
}

// Clone returns an independent pipeline with copies of every instance.
func (p *Pipeline) Clone() *Pipeline {
	clone := &Pipeline{
		catalog: p.catalog,
		slots:   make([]*Config, len(p.slots)),
		logger:  p.logger,
	}
	for i, cfg := range p.slots {
		clone.slots[i] = cfg.Clone()
	}
	return clone
}
