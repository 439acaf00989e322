package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nvr-ai/filterbox/filters"
	"github.com/nvr-ai/filterbox/images"
	"github.com/nvr-ai/filterbox/puzzle"
	"github.com/nvr-ai/filterbox/similarity"
	"github.com/pkg/errors"
)

// puzzleState is the public view of a session. The secret is never exposed,
// only its size.
type puzzleState struct {
	ID          string         `json:"id"`
	Image       string         `json:"image"`
	Slots       filters.Preset `json:"slots"`
	SecretCount int            `json:"secret_count"`
}

type scoreResponse struct {
	similarity.Result
	Verdict string `json:"verdict"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Comparable *bool  `json:"comparable,omitempty"`
}

type assignRequest struct {
	Type string `json:"type"`
}

type moveRequest struct {
	To int `json:"to"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, filters.ErrNotFound),
		errors.Is(err, filters.ErrSlotOutOfRange),
		errors.Is(err, filters.ErrUnknownParam),
		errors.Is(err, images.ErrInvalidBuffer),
		errors.Is(err, images.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, filters.ErrEmptySlot),
		errors.Is(err, similarity.ErrDimensionMismatch):
		return http.StatusConflict
	case errors.Is(err, puzzle.ErrNoImages):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writePNG(w http.ResponseWriter, r *http.Request, img *images.Image) {
	etag := `"` + images.Checksum(img) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	var buf bytes.Buffer
	if err := images.Encode(&buf, img, images.FormatPNG); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

// handleFilters lists the catalog.
// GET /filters
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Definitions())
}

// handleRender applies a pipeline to an uploaded image and returns a PNG.
// POST /render (multipart: "image" file, "pipeline" JSON preset)
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "parse upload"))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "image field"))
		return
	}
	defer file.Close()

	img, _, err := images.Decode(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var preset filters.Preset
	if raw := r.FormValue("pipeline"); raw != "" {
		preset, err = filters.ParsePresetJSON([]byte(raw))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	pipeline := filters.NewPipeline(s.catalog, s.opts.Slots, s.logger)
	if err := pipeline.Load(preset); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	pipeline.Apply(img)
	writePNG(w, r, img)
}

// handleCreatePuzzle starts a session.
// POST /puzzles
func (s *Server) handleCreatePuzzle(w http.ResponseWriter, r *http.Request) {
	game, err := s.newGame()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	sess := s.sessions.add(game)
	s.logger.WithField("session", sess.id.String()).Info("puzzle session created")

	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, s.state(sess))
}

// handleDeletePuzzle ends a session.
// DELETE /puzzles/{id}
func (s *Server) handleDeletePuzzle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok || !s.sessions.remove(sess.id) {
		writeError(w, http.StatusNotFound, errors.New("puzzle not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withSession resolves {id}, locks the session for the duration of the
// request and marks it used.
func (s *Server) withSession(h func(http.ResponseWriter, *http.Request, *session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, errors.New("puzzle not found"))
			return
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()
		s.sessions.touch(sess)
		h(w, r, sess)
	}
}

// state builds the public view. Callers hold sess.mu.
func (s *Server) state(sess *session) puzzleState {
	return puzzleState{
		ID:          sess.id.String(),
		Image:       sess.game.Image(),
		Slots:       sess.game.Pipeline().Preset(),
		SecretCount: len(sess.game.Secret()),
	}
}

// GET /puzzles/{id}
func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request, sess *session) {
	writeJSON(w, http.StatusOK, s.state(sess))
}

// GET /puzzles/{id}/input.png
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request, sess *session) {
	img, err := sess.game.Input(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writePNG(w, r, img)
}

// GET /puzzles/{id}/target.png?width=W&height=H
func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request, sess *session) {
	width, err := queryInt(r, "width")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	height, err := queryInt(r, "height")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if limit := s.opts.MaxTargetPixels; width > limit || height > limit || width*height > limit {
		writeError(w, http.StatusBadRequest,
			errors.Errorf("target size %dx%d exceeds %d pixels", width, height, limit))
		return
	}
	img, err := sess.game.Target(r.Context(), width, height)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writePNG(w, r, img)
}

// GET /puzzles/{id}/result.png
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request, sess *session) {
	img, err := sess.game.Result(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writePNG(w, r, img)
}

// GET /puzzles/{id}/score
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request, sess *session) {
	res, err := sess.game.Score(r.Context())
	if errors.Is(err, similarity.ErrDimensionMismatch) {
		comparable := false
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:      "size mismatch, cannot compare",
			Comparable: &comparable,
		})
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{
		Result:  res,
		Verdict: res.Verdict(),
		Message: res.String(),
	})
}

// POST /puzzles/{id}/image
func (s *Server) handleNewImage(w http.ResponseWriter, r *http.Request, sess *session) {
	sess.game.NewImage()
	writeJSON(w, http.StatusOK, s.state(sess))
}

// POST /puzzles/{id}/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, sess *session) {
	sess.game.NewPuzzle()
	writeJSON(w, http.StatusOK, s.state(sess))
}

// PUT /puzzles/{id}/slots/{slot} {"type": "blur"}
func (s *Server) handleAssignSlot(w http.ResponseWriter, r *http.Request, sess *session) {
	slot, err := slotParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Type == "" {
		writeError(w, http.StatusBadRequest, errors.New("body must be {\"type\": filter id}"))
		return
	}
	cfg, err := sess.game.Pipeline().Assign(slot, req.Type)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// PATCH /puzzles/{id}/slots/{slot} {"param": value, ...}
func (s *Server) handleEditSlot(w http.ResponseWriter, r *http.Request, sess *session) {
	slot, err := slotParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var params map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "body must map parameter names to numbers"))
		return
	}

	cfg, err := sess.game.Pipeline().SetParams(slot, params)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// DELETE /puzzles/{id}/slots/{slot}
func (s *Server) handleClearSlot(w http.ResponseWriter, r *http.Request, sess *session) {
	slot, err := slotParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := sess.game.Pipeline().Remove(slot); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(sess))
}

// POST /puzzles/{id}/slots/{slot}/move {"to": 2}
func (s *Server) handleMoveSlot(w http.ResponseWriter, r *http.Request, sess *session) {
	slot, err := slotParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "body must be {\"to\": slot}"))
		return
	}
	if err := sess.game.Pipeline().Move(slot, req.To); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(sess))
}

func slotParam(r *http.Request) (int, error) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		return 0, errors.Errorf("slot %q is not a number", chi.URLParam(r, "slot"))
	}
	return slot, nil
}

// queryInt reads a non-negative integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}
