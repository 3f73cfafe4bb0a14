package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/randomtoy/chess-arbiter/internal/domain/chess"
	"github.com/randomtoy/chess-arbiter/internal/domain/game"
	"github.com/randomtoy/chess-arbiter/internal/ports"
)

// SessionGetter handles read-only session queries.
type SessionGetter struct {
	store ports.SessionStore
	rl    ports.RateLimiter
}

func NewSessionGetter(store ports.SessionStore, rl ports.RateLimiter) *SessionGetter {
	return &SessionGetter{store: store, rl: rl}
}

func (g *SessionGetter) GetSession(ctx context.Context, ip, token string, id uuid.UUID) (game.View, error) {
	s, err := g.session(ctx, ip, token, id)
	if err != nil {
		return game.View{}, err
	}
	return s.View(), nil
}

// LegalMoves lists the moves of the side to move; empty once the game is over.
func (g *SessionGetter) LegalMoves(ctx context.Context, ip, token string, id uuid.UUID) ([]chess.Move, error) {
	s, err := g.session(ctx, ip, token, id)
	if err != nil {
		return nil, err
	}
	return s.LegalMoves(), nil
}

func (g *SessionGetter) PGN(ctx context.Context, ip, token string, id uuid.UUID) (string, error) {
	s, err := g.session(ctx, ip, token, id)
	if err != nil {
		return "", err
	}
	return s.PGN(), nil
}

func (g *SessionGetter) session(ctx context.Context, ip, token string, id uuid.UUID) (*game.Session, error) {
	if !g.rl.Allow(ip, token) {
		return nil, ErrRateLimited
	}
	return g.store.Get(ctx, id)
}
