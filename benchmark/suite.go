package benchmark

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/nvr-ai/filterbox/filters"
	"github.com/nvr-ai/filterbox/images"
	"github.com/nvr-ai/filterbox/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Suite manages and executes benchmark scenarios
type Suite struct {
	catalog   *filters.Catalog
	source    *images.Image
	outputDir string
	logger    logrus.FieldLogger
	now       func() time.Time

	mu        sync.RWMutex
	scenarios []Scenario
	results   []PerformanceMetrics
}

// NewSuiteArgs represents the arguments for creating a new benchmark suite.
type NewSuiteArgs struct {
	// Catalog resolves scenario filters. Nil uses the extended catalog.
	Catalog *filters.Catalog
	// Source is resized to each scenario's resolution.
	Source *images.Image
	// OutputPath receives JSON and CSV results. Empty skips saving.
	OutputPath string
	Logger     logrus.FieldLogger
}

// NewSuite creates a new benchmark suite.
//
// Arguments:
//   - args: The arguments for creating a new benchmark suite.
//
// Returns:
//   - *Suite: The benchmark suite.
//   - error: When the source image is not a valid buffer.
func NewSuite(args NewSuiteArgs) (*Suite, error) {
	if err := args.Source.Validate(); err != nil {
		return nil, errors.Wrap(err, "benchmark source")
	}
	if args.Catalog == nil {
		args.Catalog = filters.ExtendedCatalog()
	}
	if args.Logger == nil {
		args.Logger = logging.Discard()
	}
	return &Suite{
		catalog:   args.Catalog,
		source:    args.Source,
		outputDir: args.OutputPath,
		logger:    args.Logger,
		now:       time.Now,
	}, nil
}

// AddScenario adds a test scenario to the benchmark suite
func (bs *Suite) AddScenario(scenario Scenario) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.scenarios = append(bs.scenarios, scenario)
}

// AddScenarioSet adds every scenario of set.
func (bs *Suite) AddScenarioSet(set *ScenarioSet) {
	for _, s := range set.Scenarios {
		bs.AddScenario(s)
	}
}

// Scenarios returns the queued scenarios.
func (bs *Suite) Scenarios() []Scenario {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	out := make([]Scenario, len(bs.scenarios))
	copy(out, bs.scenarios)
	return out
}

// RunScenario executes a single benchmark scenario.
//
// Every iteration restores the resized frame into a work buffer and runs the
// pipeline over it, so the timed section covers one frame copy plus the
// filters. Animated filters keep their state across iterations the same way
// they do in the render loop.
func (bs *Suite) RunScenario(ctx context.Context, scenario Scenario) (*PerformanceMetrics, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	metrics := &PerformanceMetrics{
		Scenario:  scenario,
		Timestamp: bs.now(),
	}

	resizeStart := time.Now()
	frame, err := images.Resize(bs.source, scenario.Resolution.Width, scenario.Resolution.Height)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}
	metrics.ResizeDuration = time.Since(resizeStart)

	slots := len(scenario.Filters)
	if slots < 1 {
		slots = 1
	}
	pipeline := filters.NewPipeline(bs.catalog, slots, bs.logger)
	if err := pipeline.Load(scenario.Filters); err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}

	work := frame.Clone()
	render := func() {
		copy(work.Data, frame.Data)
		pipeline.Apply(work)
	}

	for i := 0; i < scenario.WarmupRuns; i++ {
		render()
	}

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	startTime := time.Now()
	for i := 0; i < scenario.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		render()
	}
	totalDuration := time.Since(startTime)

	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)

	metrics.TotalDuration = totalDuration
	metrics.AverageFrame = totalDuration / time.Duration(scenario.Iterations)
	if secs := totalDuration.Seconds(); secs > 0 {
		metrics.FramesPerSecond = float64(scenario.Iterations) / secs
		metrics.MegaPixelsPerSecond = metrics.FramesPerSecond *
			float64(frame.Width*frame.Height) / 1_000_000.0
	}
	metrics.Checksum = images.Checksum(work)

	metrics.MemoryStats = MemoryMetrics{
		AllocBytes:      endMem.Alloc,
		TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
		SysBytes:        endMem.Sys,
		NumGC:           endMem.NumGC - startMem.NumGC,
		HeapAllocBytes:  endMem.HeapAlloc,
		HeapSysBytes:    endMem.HeapSys,
	}
	metrics.CPUStats = CPUMetrics{
		NumCPU:     runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
	}

	return metrics, nil
}

// RunAllScenarios executes all queued scenarios. A failing scenario is
// logged and skipped; cancellation stops the run. Results are saved when an
// output path is configured.
func (bs *Suite) RunAllScenarios(ctx context.Context) error {
	for _, scenario := range bs.Scenarios() {
		metrics, err := bs.RunScenario(ctx, scenario)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			bs.logger.WithError(err).WithField("scenario", scenario.Name).Warn("scenario failed")
			continue
		}

		bs.mu.Lock()
		bs.results = append(bs.results, *metrics)
		bs.mu.Unlock()

		bs.logger.WithFields(logrus.Fields{
			"scenario": scenario.Name,
			"fps":      fmt.Sprintf("%.2f", metrics.FramesPerSecond),
			"mpx_s":    fmt.Sprintf("%.2f", metrics.MegaPixelsPerSecond),
			"frame":    metrics.AverageFrame,
		}).Info("scenario completed")
	}

	if bs.outputDir == "" {
		return nil
	}
	_, _, err := bs.SaveResults()
	return err
}

// SaveResults writes the results as JSON and a CSV summary into the output
// directory and returns both paths.
func (bs *Suite) SaveResults() (string, string, error) {
	results := bs.Results()

	if err := os.MkdirAll(bs.outputDir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "create output directory")
	}

	timestamp := bs.now().Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "marshal results")
	}
	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return "", "", errors.Wrap(err, "write results file")
	}

	summaryFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return "", "", errors.Wrap(err, "write summary csv")
	}

	bs.logger.WithFields(logrus.Fields{
		"results": resultsFile,
		"summary": summaryFile,
	}).Info("benchmark results saved")
	return resultsFile, summaryFile, nil
}

func saveSummaryCSV(filename string, results []PerformanceMetrics) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	_ = w.Write([]string{"Scenario", "Filters", "Resolution", "FPS", "MPx_per_s", "Avg_Frame_ms", "Alloc_MB", "Checksum"})
	for _, r := range results {
		_ = w.Write([]string{
			r.Scenario.Name,
			fmt.Sprint(r.Scenario.Filters.Types()),
			fmt.Sprintf("%dx%d", r.Scenario.Resolution.Width, r.Scenario.Resolution.Height),
			strconv.FormatFloat(r.FramesPerSecond, 'f', 2, 64),
			strconv.FormatFloat(r.MegaPixelsPerSecond, 'f', 2, 64),
			strconv.FormatFloat(float64(r.AverageFrame.Nanoseconds())/1e6, 'f', 3, 64),
			strconv.FormatFloat(float64(r.MemoryStats.TotalAllocBytes)/(1024*1024), 'f', 2, 64),
			r.Checksum,
		})
	}
	w.Flush()
	return w.Error()
}

// Results returns all benchmark results
func (bs *Suite) Results() []PerformanceMetrics {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	results := make([]PerformanceMetrics, len(bs.results))
	copy(results, bs.results)
	return results
}
