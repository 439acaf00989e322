// Package config loads the YAML application configuration.
package config

import (
	"os"
	"time"

	"github.com/nvr-ai/filterbox/filters"
	"github.com/nvr-ai/filterbox/images"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LogConfig selects the logger level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CaptureConfig selects the frame source.
type CaptureConfig struct {
	// Device is a camera index ("0") or a video file or stream URL.
	Device string `yaml:"device"`
	// Replay, when set, plays image files from this directory instead of a
	// camera.
	Replay string `yaml:"replay"`
	// Mirror flips frames horizontally before filtering.
	Mirror bool `yaml:"mirror"`
	// Resolution names a capture size ("vga", "720p", ...). When set it
	// overrides Width and Height.
	Resolution string `yaml:"resolution"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	// FPS caps the render loop. Zero renders as fast as frames arrive.
	FPS float64 `yaml:"fps"`
}

// PipelineConfig describes the initial pipeline.
type PipelineConfig struct {
	Slots int `yaml:"slots"`
	// Extended adds the animated colorFade filter to the catalog.
	Extended bool `yaml:"extended"`
	// Preset is a JSON or YAML preset file loaded at startup.
	Preset string `yaml:"preset"`
	// Filters is an inline preset, used when Preset is empty.
	Filters filters.Preset `yaml:"filters"`
}

// PuzzleConfig configures puzzle sessions.
type PuzzleConfig struct {
	ImagesDir        string `yaml:"images_dir"`
	MaxSecretFilters int    `yaml:"max_secret_filters"`
	Tolerance        int    `yaml:"tolerance"`
	// Seed fixes the random source. Zero seeds from the clock.
	Seed int64 `yaml:"seed"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	SessionTTL     time.Duration `yaml:"session_ttl"`

	// MaxTargetPixels bounds width*height of resized target images.
	MaxTargetPixels int `yaml:"max_target_pixels"`
}

// ProfilerConfig configures periodic performance reports.
type ProfilerConfig struct {
	Enabled        bool          `yaml:"enabled"`
	ReportInterval time.Duration `yaml:"report_interval"`
}

// Config is the application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Capture  CaptureConfig  `yaml:"capture"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Puzzle   PuzzleConfig   `yaml:"puzzle"`
	Server   ServerConfig   `yaml:"server"`
	Profiler ProfilerConfig `yaml:"profiler"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Capture: CaptureConfig{
			Device: "0",
			Mirror: true,
			Width:  640,
			Height: 480,
		},
		Pipeline: PipelineConfig{Slots: filters.DefaultSlots},
		Puzzle: PuzzleConfig{
			ImagesDir:        "images",
			MaxSecretFilters: 3,
			Tolerance:        5,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			MaxUploadBytes:  16 << 20,
			MaxTargetPixels: 1920 * 1080,
			SessionTTL:      time.Hour,
		},
		Profiler: ProfilerConfig{ReportInterval: 5 * time.Second},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and resolves a named capture resolution.
func (c *Config) Validate() error {
	if c.Capture.Resolution != "" {
		res, ok := images.LookupResolution(c.Capture.Resolution)
		if !ok {
			return errors.Errorf("capture.resolution %q is not a known resolution", c.Capture.Resolution)
		}
		c.Capture.Width, c.Capture.Height = res.Width, res.Height
	}

	switch {
	case c.Pipeline.Slots < 1:
		return errors.Errorf("pipeline.slots must be positive, got %d", c.Pipeline.Slots)
	case len(c.Pipeline.Filters) > c.Pipeline.Slots:
		return errors.Errorf("pipeline.filters has %d entries for %d slots",
			len(c.Pipeline.Filters), c.Pipeline.Slots)
	case c.Puzzle.MaxSecretFilters < 1:
		return errors.Errorf("puzzle.max_secret_filters must be positive, got %d", c.Puzzle.MaxSecretFilters)
	case c.Puzzle.Tolerance < 1 || c.Puzzle.Tolerance > 256:
		return errors.Errorf("puzzle.tolerance must be in [1, 256], got %d", c.Puzzle.Tolerance)
	case c.Capture.Width < 0 || c.Capture.Height < 0:
		return errors.Errorf("capture size %dx%d is negative", c.Capture.Width, c.Capture.Height)
	case c.Capture.FPS < 0:
		return errors.Errorf("capture.fps must not be negative, got %v", c.Capture.FPS)
	case c.Server.MaxUploadBytes < 1:
		return errors.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	case c.Server.MaxTargetPixels < 1:
		return errors.Errorf("server.max_target_pixels must be positive, got %d", c.Server.MaxTargetPixels)
	}
	return nil
}

// Catalog returns the filter catalog the configuration selects.
func (c *Config) Catalog() *filters.Catalog {
	if c.Pipeline.Extended {
		return filters.ExtendedCatalog()
	}
	return filters.DefaultCatalog()
}

// InitialPreset returns the preset file's contents when one is configured,
// and the inline filters otherwise.
func (c *Config) InitialPreset() (filters.Preset, error) {
	if c.Pipeline.Preset != "" {
		return filters.LoadPreset(c.Pipeline.Preset)
	}
	return c.Pipeline.Filters, nil
}
