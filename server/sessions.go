package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nvr-ai/filterbox/puzzle"
)

// session is one player's puzzle. Its mutex serialises every request that
// touches the game, since a Game is not safe for concurrent use.
type session struct {
	id uuid.UUID

	mu       sync.Mutex
	game     *puzzle.Game
	lastUsed time.Time
}

// sessions is the in-memory session store.
type sessions struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*session
	clock func() time.Time
}

func newSessions(clock func() time.Time) *sessions {
	if clock == nil {
		clock = time.Now
	}
	return &sessions{byID: make(map[uuid.UUID]*session), clock: clock}
}

func (s *sessions) add(game *puzzle.Game) *session {
	sess := &session{id: uuid.New(), game: game, lastUsed: s.clock()}
	s.mu.Lock()
	s.byID[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// get returns the session for a textual id, or false for unknown or
// malformed ids.
func (s *sessions) get(id string) (*session, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	sess, ok := s.byID[parsed]
	s.mu.RUnlock()
	return sess, ok
}

func (s *sessions) remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	delete(s.byID, id)
	return ok
}

func (s *sessions) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// touch marks the session used. Callers hold sess.mu.
func (s *sessions) touch(sess *session) {
	sess.lastUsed = s.clock()
}

// sweep removes sessions idle for longer than ttl and returns how many were
// removed.
func (s *sessions) sweep(ttl time.Duration) int {
	cutoff := s.clock().Add(-ttl)

	s.mu.RLock()
	var idle []*session
	for _, sess := range s.byID {
		sess.mu.Lock()
		if sess.lastUsed.Before(cutoff) {
			idle = append(idle, sess)
		}
		sess.mu.Unlock()
	}
	s.mu.RUnlock()

	for _, sess := range idle {
		s.remove(sess.id)
	}
	return len(idle)
}
