// Command server serves the filter catalog, one-shot rendering and puzzle
// sessions over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvr-ai/filterbox/config"
	"github.com/nvr-ai/filterbox/images"
	"github.com/nvr-ai/filterbox/logging"
	"github.com/nvr-ai/filterbox/server"
	"github.com/nvr-ai/filterbox/util"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	imagesDir := flag.String("images", "", "puzzle image directory (overrides config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := run(*configPath, *addr, *imagesDir, *debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, addr, imagesDir string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if imagesDir != "" {
		cfg.Puzzle.ImagesDir = imagesDir
	}
	if debug {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	names, err := util.ImageNames(cfg.Puzzle.ImagesDir)
	if err != nil {
		logger.WithError(err).Warn("no puzzle images; puzzle endpoints will be unavailable")
	}

	srv := server.New(server.Options{
		Loader:           images.NewFileLoader(cfg.Puzzle.ImagesDir),
		Images:           names,
		Catalog:          cfg.Catalog(),
		Slots:            cfg.Pipeline.Slots,
		MaxSecretFilters: cfg.Puzzle.MaxSecretFilters,
		Tolerance:        cfg.Puzzle.Tolerance,
		MaxUploadBytes:   cfg.Server.MaxUploadBytes,
		MaxTargetPixels:  cfg.Server.MaxTargetPixels,
		SessionTTL:       cfg.Server.SessionTTL,
		Seed:             cfg.Puzzle.Seed,
		Logger:           logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"addr":   cfg.Server.Addr,
		"images": len(names),
	}).Info("starting filterbox server")

	return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
}
