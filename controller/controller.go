// Package controller drives the render loop: each frame is read from a
// capture source, run through the filter pipeline and handed to a sink.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/nvr-ai/filterbox/capture"
	"github.com/nvr-ai/filterbox/filters"
	"github.com/nvr-ai/filterbox/images"
	"github.com/nvr-ai/filterbox/logging"
	"github.com/nvr-ai/filterbox/profiler"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrStop may be returned by a Sink to end Run without an error.
var ErrStop = errors.New("stop rendering")

// Frame is a single filtered frame of video.
type Frame struct {
	ID        int
	Image     *images.Image
	Timestamp time.Time
	// FPS is the render rate at the time the frame was produced.
	FPS float64
}

// Sink consumes rendered frames.
type Sink interface {
	Show(ctx context.Context, frame Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, frame Frame) error

// Show calls f.
func (f SinkFunc) Show(ctx context.Context, frame Frame) error {
	return f(ctx, frame)
}

// Options configures a Controller.
type Options struct {
	// FPS caps the frame rate. Zero renders as fast as the source delivers.
	FPS float64
	// MaxFrames stops Run after this many frames. Zero runs until the source
	// closes or the context ends.
	MaxFrames int
	// Profiler records timings. Nil creates a private one.
	Profiler *profiler.Profiler
	// Logger receives loop events. Nil discards.
	Logger logrus.FieldLogger
}

// Controller owns a pipeline and applies it exactly once per frame.
type Controller struct {
	source   capture.Source
	sink     Sink
	opts     Options
	profiler *profiler.Profiler
	logger   logrus.FieldLogger

	// mu serialises pipeline edits with frame rendering.
	mu       sync.Mutex
	pipeline *filters.Pipeline
	nextID   int
}

// New creates a controller.
//
// Arguments:
//   - source: Where frames come from.
//   - pipeline: The filters to apply. The controller takes ownership; edit it
//     through Edit once Run has started.
//   - sink: Where rendered frames go.
//   - opts: Loop options.
//
// Returns:
//   - *Controller: The controller, ready to Run.
func New(source capture.Source, pipeline *filters.Pipeline, sink Sink, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Profiler == nil {
		opts.Profiler = profiler.New(profiler.Options{Logger: opts.Logger})
	}
	return &Controller{
		source:   source,
		sink:     sink,
		opts:     opts,
		profiler: opts.Profiler,
		logger:   opts.Logger,
		pipeline: pipeline,
	}
}

// Profiler returns the controller's profiler.
func (c *Controller) Profiler() *profiler.Profiler {
	return c.profiler
}

// Edit runs fn with exclusive access to the pipeline, between frames.
func (c *Controller) Edit(fn func(p *filters.Pipeline) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.pipeline)
}

// Step reads, filters and shows one frame.
//
// Returns:
//   - Frame: The rendered frame.
//   - error: The source, sink or context error.
func (c *Controller) Step(ctx context.Context) (Frame, error) {
	done := c.profiler.StartOperation("capture")
	img, err := c.source.Read(ctx)
	done()
	if err != nil {
		return Frame{}, err
	}

	c.mu.Lock()
	done = c.profiler.StartOperation("pipeline")
	c.pipeline.Apply(img)
	done()
	frame := Frame{ID: c.nextID, Image: img, Timestamp: time.Now()}
	c.nextID++
	c.mu.Unlock()

	frame.FPS = c.profiler.Frame(frame.Timestamp)

	done = c.profiler.StartOperation("sink")
	err = c.sink.Show(ctx, frame)
	done()
	return frame, err
}

// Run renders frames until the context ends, the source closes, the sink
// returns ErrStop or MaxFrames is reached. Those are clean exits and return
// nil; any other source or sink error is returned.
func (c *Controller) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if c.opts.FPS > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / c.opts.FPS))
		defer ticker.Stop()
		tick = ticker.C
	}

	w, h := c.source.Size()
	c.logger.WithFields(logrus.Fields{
		"width":  w,
		"height": h,
		"fps":    c.opts.FPS,
	}).Info("render loop started")

	for n := 0; c.opts.MaxFrames <= 0 || n < c.opts.MaxFrames; n++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return c.stopped(ctx.Err())
			case <-tick:
			}
		}
		if ctx.Err() != nil {
			return c.stopped(ctx.Err())
		}

		frame, err := c.Step(ctx)
		if err != nil {
			return c.stopped(err)
		}
		c.logger.WithFields(logrus.Fields{
			"frame": frame.ID,
			"fps":   frame.FPS,
		}).Trace("rendered frame")
	}
	return c.stopped(nil)
}

func (c *Controller) stopped(err error) error {
	switch {
	case err == nil,
		errors.Is(err, ErrStop),
		errors.Is(err, capture.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		c.logger.WithField("frames", c.profiler.Snapshot().Frames).Info("render loop stopped")
		return nil
	}
	c.logger.WithError(err).Error("render loop failed")
	return err
}
