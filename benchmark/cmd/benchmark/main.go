package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nvr-ai/filterbox/benchmark"
	"github.com/nvr-ai/filterbox/filters"
	"github.com/nvr-ai/filterbox/images"
	"github.com/nvr-ai/filterbox/logging"
)

func main() {
	var (
		scenarioFile = flag.String("scenarios", "", "Path to a YAML scenario set (default: every filter at each -resolutions entry)")
		outputDir    = flag.String("output", "./benchmark_results", "Output directory for results")
		sourceImage  = flag.String("image", "", "Source image resized for every scenario (default: generated gradient)")
		resolutions  = flag.String("resolutions", "vga,720p", "Comma-separated resolution names for the per-filter set")
		iterations   = flag.Int("iterations", 100, "Timed iterations per scenario for the per-filter set")
		logLevel     = flag.String("log-level", "info", "Log level")
		timeout      = flag.Duration("timeout", 30*time.Minute, "Benchmark timeout duration")
	)
	flag.Parse()

	logger, err := logging.New(*logLevel, logging.FormatText)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	source, err := loadSource(*sourceImage)
	if err != nil {
		logger.WithError(err).Fatal("failed to load source image")
	}

	suite, err := benchmark.NewSuite(benchmark.NewSuiteArgs{
		Catalog:    filters.ExtendedCatalog(),
		Source:     source,
		OutputPath: *outputDir,
		Logger:     logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create benchmark suite")
	}

	if *scenarioFile != "" {
		set, err := benchmark.LoadScenarioSet(*scenarioFile)
		if err != nil {
			logger.WithError(err).Fatal("failed to load scenarios")
		}
		suite.AddScenarioSet(set)
	} else {
		var res []images.Resolution
		for _, name := range strings.Split(*resolutions, ",") {
			r, ok := images.LookupResolution(name)
			if !ok {
				logger.Fatalf("unknown resolution %q", name)
			}
			res = append(res, r)
		}
		suite.AddScenarioSet(benchmark.PerFilterScenarios(filters.ExtendedCatalog(), res, *iterations))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	logger.WithField("scenarios", len(suite.Scenarios())).Info("starting benchmark")
	if err := suite.RunAllScenarios(ctx); err != nil {
		logger.WithError(err).Fatal("benchmark failed")
	}
}

// loadSource decodes path, or generates a diagonal gradient when path is empty.
func loadSource(path string) (*images.Image, error) {
	if path != "" {
		return images.NewFileLoader("").Load(context.Background(), path)
	}
	img, err := images.New(1920, 1080)
	if err != nil {
		return nil, err
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := img.Offset(x, y)
			img.Data[i+0] = byte(x * 255 / img.Width)
			img.Data[i+1] = byte(y * 255 / img.Height)
			img.Data[i+2] = byte((x + y) % 256)
			img.Data[i+3] = 255
		}
	}
	return img, nil
}
