// Package profiler tracks frame rate, per-operation timings and custom
// metrics for the render loop, and reports them periodically.
package profiler

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/nvr-ai/filterbox/logging"
	"github.com/sirupsen/logrus"
)

// MetricTracker tracks statistics for a custom metric over a sliding window.
type MetricTracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

// TimeTracker tracks operation timing statistics over a sliding window.
type TimeTracker struct {
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// MetricStats is a snapshot of a MetricTracker.
type MetricStats struct {
	Avg     float64 `json:"avg"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Samples int     `json:"samples"`
	Count   int64   `json:"count"`
}

// OperationStats is a snapshot of a TimeTracker.
type OperationStats struct {
	Avg     time.Duration `json:"avg"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	Samples int           `json:"samples"`
	Count   int64         `json:"count"`
}

// Stats is a snapshot of the profiler.
type Stats struct {
	Uptime     time.Duration             `json:"uptime"`
	Frames     int64                     `json:"frames"`
	FPS        float64                   `json:"fps"`
	Goroutines int                       `json:"goroutines"`
	HeapAlloc  uint64                    `json:"heap_alloc"`
	Metrics    map[string]MetricStats    `json:"metrics"`
	Operations map[string]OperationStats `json:"operations"`
}

// Options configures the profiler.
type Options struct {
	// ReportInterval specifies how often Run emits a report (default: 5s).
	ReportInterval time.Duration
	// MaxSamples specifies the sliding window size per tracker (default: 600).
	MaxSamples int
	// Logger receives reports. Nil discards.
	Logger logrus.FieldLogger
}

// Profiler is safe for concurrent use.
type Profiler struct {
	reportInterval time.Duration
	maxSamples     int
	logger         logrus.FieldLogger

	mu         sync.RWMutex
	startTime  time.Time
	metrics    map[string]*MetricTracker
	operations map[string]*TimeTracker
	fps        FPSCounter
	frames     int64
	lastGC     uint32
}

// New creates a profiler with the specified options.
//
// Arguments:
// - opts: Configuration options for the profiler
//
// Returns:
// - A configured Profiler instance
func New(opts Options) *Profiler {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 5 * time.Second
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 600
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Profiler{
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		logger:         opts.Logger,
		startTime:      time.Now(),
		metrics:        make(map[string]*MetricTracker),
		operations:     make(map[string]*TimeTracker),
	}
}

// Frame records a rendered frame at now and returns the current frame rate.
func (p *Profiler) Frame(now time.Time) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames++
	p.fps.Tick(now)
	return p.fps.FPS()
}

// RecordMetric records a custom metric value.
//
// Arguments:
// - name: The name of the metric
// - value: The metric value to record
func (p *Profiler) RecordMetric(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.metrics[name]
	if !exists {
		tracker = &MetricTracker{
			values: make([]float64, 0, p.maxSamples),
			min:    value,
			max:    value,
		}
		p.metrics[name] = tracker
	}

	tracker.values = append(tracker.values, value)
	if len(tracker.values) > p.maxSamples {
		tracker.sum -= tracker.values[0]
		tracker.values = tracker.values[1:]
	}
	tracker.sum += value
	tracker.count++
	tracker.min = min(tracker.min, value)
	tracker.max = max(tracker.max, value)
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.RecordOperation(name, time.Since(start))
	}
}

// RecordOperation records the completion time of an operation.
func (p *Profiler) RecordOperation(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operations[name]
	if !exists {
		tracker = &TimeTracker{minTime: d, maxTime: d}
		p.operations[name] = tracker
	}

	tracker.durations = append(tracker.durations, d)
	if len(tracker.durations) > p.maxSamples {
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}
	tracker.totalTime += d
	tracker.count++
	tracker.minTime = min(tracker.minTime, d)
	tracker.maxTime = max(tracker.maxTime, d)
}

// Snapshot returns the current statistics.
func (p *Profiler) Snapshot() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := Stats{
		Uptime:     time.Since(p.startTime),
		Frames:     p.frames,
		FPS:        p.fps.FPS(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		Metrics:    make(map[string]MetricStats, len(p.metrics)),
		Operations: make(map[string]OperationStats, len(p.operations)),
	}
	for name, t := range p.metrics {
		if len(t.values) == 0 {
			continue
		}
		stats.Metrics[name] = MetricStats{
			Avg:     t.sum / float64(len(t.values)),
			Min:     t.min,
			Max:     t.max,
			Samples: len(t.values),
			Count:   t.count,
		}
	}
	for name, t := range p.operations {
		if len(t.durations) == 0 {
			continue
		}
		stats.Operations[name] = OperationStats{
			Avg:     t.totalTime / time.Duration(len(t.durations)),
			Min:     t.minTime,
			Max:     t.maxTime,
			Samples: len(t.durations),
			Count:   t.count,
		}
	}
	return stats
}

// Run emits a report every ReportInterval until ctx is done.
func (p *Profiler) Run(ctx context.Context) {
	ticker := time.NewTicker(p.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Report()
		}
	}
}

// Report logs the current statistics at info level.
func (p *Profiler) Report() {
	stats := p.Snapshot()

	fields := logrus.Fields{
		"uptime":     stats.Uptime.Truncate(time.Millisecond).String(),
		"frames":     stats.Frames,
		"fps":        fmt.Sprintf("%.2f", stats.FPS),
		"goroutines": stats.Goroutines,
		"heap_alloc": formatBytes(stats.HeapAlloc),
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	p.mu.Lock()
	if mem.NumGC > p.lastGC {
		fields["gc_new"] = mem.NumGC - p.lastGC
		p.lastGC = mem.NumGC
	}
	p.mu.Unlock()

	for _, name := range sortedKeys(stats.Operations) {
		op := stats.Operations[name]
		fields["op."+name] = fmt.Sprintf("avg=%v max=%v n=%d",
			op.Avg.Truncate(time.Microsecond), op.Max.Truncate(time.Microsecond), op.Samples)
	}
	for _, name := range sortedKeys(stats.Metrics) {
		m := stats.Metrics[name]
		fields["metric."+name] = fmt.Sprintf("avg=%.2f min=%.2f max=%.2f", m.Avg, m.Min, m.Max)
	}

	p.logger.WithFields(fields).Info("profiler report")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
