package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-arbiter/internal/domain/game"
	"github.com/randomtoy/chess-arbiter/internal/logging"
	"github.com/randomtoy/chess-arbiter/internal/ports"
)

// Terminator ends sessions by resignation or abort.
type Terminator struct {
	store   ports.SessionStore
	archive ports.Archive
	rl      ports.RateLimiter
	log     *zap.Logger
}

func NewTerminator(store ports.SessionStore, archive ports.Archive, rl ports.RateLimiter, log *zap.Logger) *Terminator {
	return &Terminator{store: store, archive: archive, rl: rl, log: logging.OrNop(log)}
}

// Resign concedes the game for identity; the opponent wins.
func (t *Terminator) Resign(ctx context.Context, ip, token string, id uuid.UUID, identity string) (game.View, error) {
	return t.end(ctx, ip, token, id, identity, func(s *game.Session, now time.Time) error {
		color, err := s.ColorOf(identity)
		if err != nil {
			return err
		}
		_, err = s.Resign(color, now)
		return err
	})
}

// Abort ends the game without a result. Only a participant may abort.
func (t *Terminator) Abort(ctx context.Context, ip, token string, id uuid.UUID, identity string) (game.View, error) {
	return t.end(ctx, ip, token, id, identity, func(s *game.Session, now time.Time) error {
		if _, err := s.ColorOf(identity); err != nil {
			return err
		}
		_, err := s.Abort(now)
		return err
	})
}

func (t *Terminator) end(
	ctx context.Context,
	ip, token string,
	id uuid.UUID,
	identity string,
	apply func(*game.Session, time.Time) error,
) (game.View, error) {
	if !t.rl.Allow(ip, token) {
		return game.View{}, ErrRateLimited
	}
	s, err := t.store.Get(ctx, id)
	if err != nil {
		return game.View{}, err
	}
	if err := apply(s, time.Now()); err != nil {
		return game.View{}, err
	}
	archiveFinished(ctx, t.archive, t.log.With(zap.String("by", identity)), s)
	return s.View(), nil
}
