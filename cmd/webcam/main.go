// Command webcam runs the filter sandbox on a live camera feed and shows the
// filtered frames in a window.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvr-ai/filterbox/capture"
	"github.com/nvr-ai/filterbox/config"
	"github.com/nvr-ai/filterbox/controller"
	"github.com/nvr-ai/filterbox/filters"
	"github.com/nvr-ai/filterbox/logging"
	"github.com/nvr-ai/filterbox/profiler"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	keyEsc = 27
	keyQ   = 'q'
	keyC   = 'c'
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	device := flag.String("device", "", "camera index, video file or stream URL (overrides config)")
	replay := flag.String("replay", "", "play image files from this directory instead of a camera")
	preset := flag.String("preset", "", "JSON or YAML pipeline preset (overrides config)")
	noMirror := flag.Bool("no-mirror", false, "do not flip frames horizontally")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := run(*configPath, *device, *replay, *preset, *noMirror, *debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, device, replay, preset string, noMirror, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if device != "" {
		cfg.Capture.Device = device
	}
	if replay != "" {
		cfg.Capture.Replay = replay
	}
	if preset != "" {
		cfg.Pipeline.Preset = preset
	}
	if noMirror {
		cfg.Capture.Mirror = false
	}
	if debug {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	pipeline := filters.NewPipeline(cfg.Catalog(), cfg.Pipeline.Slots, logger)
	initial, err := cfg.InitialPreset()
	if err != nil {
		return err
	}
	if err := pipeline.Load(initial); err != nil {
		return err
	}

	source, err := openSource(cfg.Capture)
	if err != nil {
		return err
	}
	defer source.Close()

	window := gocv.NewWindow("filterbox")
	defer window.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prof := profiler.New(profiler.Options{
		ReportInterval: cfg.Profiler.ReportInterval,
		Logger:         logger,
	})
	if cfg.Profiler.Enabled {
		go prof.Run(ctx)
	}

	var ctrl *controller.Controller
	sink := controller.SinkFunc(func(ctx context.Context, frame controller.Frame) error {
		mat, err := gocv.ImageToMatRGBA(frame.Image.ToNRGBA())
		if err != nil {
			return err
		}
		defer mat.Close()
		gocv.CvtColor(mat, &mat, gocv.ColorRGBAToBGR)

		gocv.PutText(&mat, fmt.Sprintf("FPS: %.1f", frame.FPS), image.Pt(10, 24),
			gocv.FontHersheyPlain, 1.4, color.RGBA{255, 255, 255, 0}, 2)
		window.IMShow(mat)

		switch window.WaitKey(1) {
		case keyEsc, keyQ:
			return controller.ErrStop
		case keyC:
			return ctrl.Edit(func(p *filters.Pipeline) error {
				p.Clear()
				logger.Info("pipeline cleared")
				return nil
			})
		}
		return nil
	})

	ctrl = controller.New(source, pipeline, sink, controller.Options{
		FPS:      cfg.Capture.FPS,
		Profiler: prof,
		Logger:   logger,
	})

	logger.WithFields(logrus.Fields{
		"device":  cfg.Capture.Device,
		"replay":  cfg.Capture.Replay,
		"mirror":  cfg.Capture.Mirror,
		"filters": pipeline.Preset().Types(),
	}).Info("starting webcam sandbox")

	return ctrl.Run(ctx)
}

func openSource(c config.CaptureConfig) (capture.Source, error) {
	opts := capture.Options{Mirror: c.Mirror, Width: c.Width, Height: c.Height}
	if c.Replay != "" {
		return capture.OpenDirectory(c.Replay, true, opts)
	}
	return capture.OpenWebcam(c.Device, opts)
}
