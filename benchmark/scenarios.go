package benchmark

import (
	"fmt"
	"os"

	"github.com/nvr-ai/filterbox/filters"
	"github.com/nvr-ai/filterbox/images"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Scenario is one pipeline rendered repeatedly at one resolution.
type Scenario struct {
	Name string `json:"name" yaml:"name"`
	// Filters is the pipeline under test. An empty preset measures the frame
	// copy alone.
	Filters    filters.Preset    `json:"filters" yaml:"filters"`
	Resolution images.Resolution `json:"resolution" yaml:"resolution"`
	Iterations int               `json:"iterations" yaml:"iterations"`
	WarmupRuns int               `json:"warmup_runs" yaml:"warmup_runs"`
}

// Validate resolves a name-only resolution and checks the run counts.
func (s *Scenario) Validate() error {
	if s.Resolution.Width == 0 && s.Resolution.Height == 0 && s.Resolution.Name != "" {
		res, ok := images.LookupResolution(s.Resolution.Name)
		if !ok {
			return errors.Errorf("scenario %s: unknown resolution %q", s.Name, s.Resolution.Name)
		}
		s.Resolution = res
	}
	switch {
	case s.Resolution.Width <= 0 || s.Resolution.Height <= 0:
		return errors.Errorf("scenario %s: resolution %dx%d is not positive",
			s.Name, s.Resolution.Width, s.Resolution.Height)
	case s.Iterations < 1:
		return errors.Errorf("scenario %s: iterations must be positive, got %d", s.Name, s.Iterations)
	case s.WarmupRuns < 0:
		return errors.Errorf("scenario %s: warmup runs must not be negative, got %d", s.Name, s.WarmupRuns)
	}
	return nil
}

// ScenarioBuilder helps build test scenarios with fluent API
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a new scenario builder
func NewScenarioBuilder(name string) *ScenarioBuilder {
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:       name,
			Iterations: 100,
			WarmupRuns: 10,
		},
	}
}

// WithFilter appends a filter configuration to the pipeline under test.
func (sb *ScenarioBuilder) WithFilter(cfg *filters.Config) *ScenarioBuilder {
	sb.scenario.Filters = append(sb.scenario.Filters, cfg.Clone())
	return sb
}

// WithResolution sets the frame size.
func (sb *ScenarioBuilder) WithResolution(res images.Resolution) *ScenarioBuilder {
	sb.scenario.Resolution = res
	return sb
}

// WithSize sets an unnamed frame size.
func (sb *ScenarioBuilder) WithSize(width, height int) *ScenarioBuilder {
	sb.scenario.Resolution = images.Resolution{
		Name:   fmt.Sprintf("%dx%d", width, height),
		Width:  width,
		Height: height,
	}
	return sb
}

// WithIterations sets the number of test iterations
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.scenario.Iterations = iterations
	return sb
}

// WithWarmupRuns sets the number of warmup runs
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// Build returns the configured test scenario
func (sb *ScenarioBuilder) Build() Scenario {
	return sb.scenario
}

// ScenarioSet represents a collection of related test scenarios
type ScenarioSet struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Scenarios   []Scenario `json:"scenarios" yaml:"scenarios"`
}

// Validate validates every scenario in the set.
func (ss *ScenarioSet) Validate() error {
	if len(ss.Scenarios) == 0 {
		return errors.Errorf("scenario set %q is empty", ss.Name)
	}
	for i := range ss.Scenarios {
		if err := ss.Scenarios[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PerFilterScenarios returns one scenario per catalog filter (at its default
// parameters) per resolution.
//
// Arguments:
//   - catalog: The filters to measure.
//   - resolutions: The frame sizes to measure each filter at.
//   - iterations: Timed runs per scenario.
//
// Returns:
//   - *ScenarioSet: Scenarios named "<filter>_<resolution>".
func PerFilterScenarios(catalog *filters.Catalog, resolutions []images.Resolution, iterations int) *ScenarioSet {
	scenarios := make([]Scenario, 0, len(resolutions)*len(catalog.IDs()))
	for _, res := range resolutions {
		for _, def := range catalog.Definitions() {
			scenarios = append(scenarios, NewScenarioBuilder(def.ID+"_"+res.Name).
				WithFilter(def.DefaultConfig()).
				WithResolution(res).
				WithIterations(iterations).
				WithWarmupRuns(iterations/10).
				Build())
		}
	}
	return &ScenarioSet{
		Name:        "Per-filter throughput",
		Description: "Each catalog filter at its default parameters",
		Scenarios:   scenarios,
	}
}

// LoadScenarioSet reads a YAML (or JSON) scenario set and validates it.
func LoadScenarioSet(path string) (*ScenarioSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scenario set %s", path)
	}
	var set ScenarioSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, errors.Wrapf(err, "parse scenario set %s", path)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}
