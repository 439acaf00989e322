// Package benchmark measures filter pipeline throughput across resolutions.
package benchmark

import "time"

// PerformanceMetrics captures the measurements of one scenario run.
type PerformanceMetrics struct {
	Scenario       Scenario      `json:"scenario"`
	Timestamp      time.Time     `json:"timestamp"`
	TotalDuration  time.Duration `json:"total_duration"`
	ResizeDuration time.Duration `json:"resize_duration"`
	// AverageFrame is TotalDuration divided by the iteration count.
	AverageFrame        time.Duration `json:"average_frame"`
	FramesPerSecond     float64       `json:"frames_per_second"`
	MegaPixelsPerSecond float64       `json:"megapixels_per_second"`
	// Checksum digests the last rendered frame so runs can be compared for
	// identical output.
	Checksum    string        `json:"checksum"`
	MemoryStats MemoryMetrics `json:"memory_stats"`
	CPUStats    CPUMetrics    `json:"cpu_stats"`
}

// MemoryMetrics captures memory usage statistics
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes"`
}

// CPUMetrics captures CPU usage statistics
type CPUMetrics struct {
	NumCPU     int `json:"num_cpu"`
	GOMAXPROCS int `json:"gomaxprocs"`
}
