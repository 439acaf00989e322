// Package server exposes the filter catalog, one-shot rendering and puzzle
// sessions over HTTP.
package server

import (
	"context"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nvr-ai/filterbox/filters"
	"github.com/nvr-ai/filterbox/images"
	"github.com/nvr-ai/filterbox/logging"
	"github.com/nvr-ai/filterbox/puzzle"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultMaxTargetPixels is the 1080p pixel count.
const DefaultMaxTargetPixels = 1920 * 1080

// Options configures a Server.
type Options struct {
	// Loader supplies puzzle images.
	Loader images.Loader
	// Images are the puzzle image identifiers. Empty uses the loader's own
	// listing when it has one.
	Images []string
	// Catalog is the filter catalog (default filters.DefaultCatalog()).
	Catalog *filters.Catalog

	Slots            int
	MaxSecretFilters int
	Tolerance        int

	// MaxUploadBytes bounds render uploads (default 16 MiB).
	MaxUploadBytes int64
	// MaxTargetPixels bounds width*height of a resized target image
	// (default 1920x1080).
	MaxTargetPixels int
	// SessionTTL expires idle puzzle sessions (default 1h).
	SessionTTL time.Duration
	// Seed makes puzzle selection reproducible. Zero seeds from the clock.
	Seed int64

	Logger logrus.FieldLogger
}

// Server is the HTTP API.
type Server struct {
	opts     Options
	catalog  *filters.Catalog
	logger   logrus.FieldLogger
	router   *chi.Mux
	sessions *sessions

	seedMu sync.Mutex
	seeds  *rand.Rand
}

// New creates the server and its routes.
//
// Arguments:
//   - opts: The server options.
//
// Returns:
//   - *Server: The server. Serve it with ListenAndServe or mount Handler.
func New(opts Options) *Server {
	if opts.Catalog == nil {
		opts.Catalog = filters.DefaultCatalog()
	}
	if opts.Slots < 1 {
		opts.Slots = filters.DefaultSlots
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 16 << 20
	}
	if opts.MaxTargetPixels <= 0 {
		opts.MaxTargetPixels = DefaultMaxTargetPixels
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Server{
		opts:     opts,
		catalog:  opts.Catalog,
		logger:   opts.Logger,
		sessions: newSessions(nil),
		seeds:    rand.New(rand.NewSource(seed)),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/filters", s.handleFilters)
	r.Post("/render", s.handleRender)

	r.Route("/puzzles", func(r chi.Router) {
		r.Post("/", s.handleCreatePuzzle)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withSession(s.handleGetPuzzle))
			r.Delete("/", s.handleDeletePuzzle)
			r.Get("/input.png", s.withSession(s.handleInput))
			r.Get("/target.png", s.withSession(s.handleTarget))
			r.Get("/result.png", s.withSession(s.handleResult))
			r.Get("/score", s.withSession(s.handleScore))
			r.Post("/image", s.withSession(s.handleNewImage))
			r.Post("/reset", s.withSession(s.handleReset))

			r.Put("/slots/{slot}", s.withSession(s.handleAssignSlot))
			r.Patch("/slots/{slot}", s.withSession(s.handleEditSlot))
			r.Delete("/slots/{slot}", s.withSession(s.handleClearSlot))
			r.Post("/slots/{slot}/move", s.withSession(s.handleMoveSlot))
		})
	})
	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// newGame starts a puzzle with its own random source.
func (s *Server) newGame() (*puzzle.Game, error) {
	s.seedMu.Lock()
	seed := s.seeds.Int63()
	s.seedMu.Unlock()

	return puzzle.New(s.opts.Loader, puzzle.Options{
		Images:           s.opts.Images,
		MaxSecretFilters: s.opts.MaxSecretFilters,
		Slots:            s.opts.Slots,
		Tolerance:        s.opts.Tolerance,
		Catalog:          s.catalog,
		Rand:             rand.New(rand.NewSource(seed)),
		Logger:           s.logger,
	})
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. Idle sessions are swept in the background.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	go s.sweepLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http server shutdown")
	}
	return nil
}

func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(max(s.opts.SessionTTL/4, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.sweep(s.opts.SessionTTL); n > 0 {
				s.logger.WithField("expired", n).Info("swept idle puzzle sessions")
			}
		}
	}
}

// requestLogger logs one line per request with logrus.
func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.WithFields(logrus.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start).String(),
				}).Info("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
