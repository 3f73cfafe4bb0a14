package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/randomtoy/chess-arbiter/internal/domain/chess"
	"github.com/randomtoy/chess-arbiter/internal/domain/game"
)

// Sentinel lookup errors.
var (
	ErrSessionNotFound = errors.New("session_not_found")
	ErrSessionExists   = errors.New("session_exists")
	ErrArchiveNotFound = errors.New("archive_not_found")
)

// Binding ties an identity to one color of a session. It is a
// back-reference only; the store owns the session.
type Binding struct {
	SessionID uuid.UUID
	Color     chess.Color
	Status    chess.GameStatus
}

// SessionStore is the Session Registry: live game sessions keyed by id,
// indexed by player identity.
type SessionStore interface {
	// Insert registers a new session and binds both of its players.
	Insert(ctx context.Context, s *game.Session) error

	// Get returns the live session or ErrSessionNotFound.
	Get(ctx context.Context, id uuid.UUID) (*game.Session, error)

	// Bindings lists the sessions identity plays in, oldest first.
	Bindings(ctx context.Context, identity string) ([]Binding, error)

	// Sweep drops sessions that finished before cutoff, with their bindings,
	// and returns how many were removed.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// Archive keeps the records of finished games.
type Archive interface {
	Save(ctx context.Context, rec game.Record) error
	// Load returns ErrArchiveNotFound for unknown ids.
	Load(ctx context.Context, id uuid.UUID) (game.Record, error)
}

// RateLimiter gates requests by IP and optional client token.
type RateLimiter interface {
	Allow(ip, token string) bool
}
