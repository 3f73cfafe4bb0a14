package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randomtoy/chess-arbiter/internal/domain/game"
	"github.com/randomtoy/chess-arbiter/internal/ports"
)

// Store is a thread-safe in-memory SessionStore. The store lock guards only
// the maps; each session serializes its own moves.
type Store struct {
	mu sync.RWMutex

	sessions map[uuid.UUID]*game.Session

	// bindings: identity -> session ids in creation order
	bindings map[string][]uuid.UUID
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*game.Session),
		bindings: make(map[string][]uuid.UUID),
	}
}

func (s *Store) Insert(_ context.Context, sess *game.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := sess.ID()
	if _, ok := s.sessions[id]; ok {
		return ports.ErrSessionExists
	}
	s.sessions[id] = sess
	white, black := sess.Players()
	s.bindings[white] = append(s.bindings[white], id)
	s.bindings[black] = append(s.bindings[black], id)
	return nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*game.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (s *Store) Bindings(_ context.Context, identity string) ([]ports.Binding, error) {
	s.mu.RLock()
	ids := s.bindings[identity]
	sessions := make([]*game.Session, 0, len(ids))
	for _, id := range ids {
		if sess, ok := s.sessions[id]; ok {
			sessions = append(sessions, sess)
		}
	}
	s.mu.RUnlock()

	out := make([]ports.Binding, 0, len(sessions))
	for _, sess := range sessions {
		color, err := sess.ColorOf(identity)
		if err != nil {
			continue
		}
		out = append(out, ports.Binding{
			SessionID: sess.ID(),
			Color:     color,
			Status:    sess.Status(),
		})
	}
	return out, nil
}

// Sweep removes sessions that finished (or faulted) before cutoff.
func (s *Store) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if !sess.FinishedBefore(cutoff) {
			continue
		}
		delete(s.sessions, id)
		white, black := sess.Players()
		s.unbind(white, id)
		s.unbind(black, id)
		removed++
	}
	return removed, nil
}

func (s *Store) unbind(identity string, id uuid.UUID) {
	ids := s.bindings[identity]
	for i, bound := range ids {
		if bound == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(s.bindings, identity)
		return
	}
	s.bindings[identity] = ids
}
