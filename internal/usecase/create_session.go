package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-arbiter/internal/domain/chess"
	"github.com/randomtoy/chess-arbiter/internal/domain/game"
	"github.com/randomtoy/chess-arbiter/internal/logging"
	"github.com/randomtoy/chess-arbiter/internal/ports"
)

var ErrRateLimited = errors.New("rate limited")

// CreateSessionRequest is the input to CreateSession. An empty FEN starts
// from the standard initial position.
type CreateSessionRequest struct {
	WhiteID string
	BlackID string
	FEN     string
}

// SessionCreator starts new game sessions.
type SessionCreator struct {
	store ports.SessionStore
	rl    ports.RateLimiter
	log   *zap.Logger
}

func NewSessionCreator(store ports.SessionStore, rl ports.RateLimiter, log *zap.Logger) *SessionCreator {
	return &SessionCreator{store: store, rl: rl, log: logging.OrNop(log)}
}

// CreateSession registers a new session and binds both players to it.
// Returns chess.ErrInvalidFEN, game.ErrInvalidPlayers or game.ErrInvalidStart
// for bad input.
func (c *SessionCreator) CreateSession(ctx context.Context, ip, token string, req CreateSessionRequest) (game.View, error) {
	if !c.rl.Allow(ip, token) {
		return game.View{}, ErrRateLimited
	}

	start := chess.NewBoard()
	if req.FEN != "" {
		b, err := chess.ParseFEN(req.FEN)
		if err != nil {
			return game.View{}, err
		}
		start = b
	}

	s, err := game.NewFromBoard(uuid.New(), req.WhiteID, req.BlackID, start, time.Now())
	if err != nil {
		return game.View{}, err
	}
	if err := c.store.Insert(ctx, s); err != nil {
		return game.View{}, fmt.Errorf("insert session: %w", err)
	}

	c.log.Info("session_create",
		zap.String("session_id", s.ID().String()),
		zap.String("white", req.WhiteID),
		zap.String("black", req.BlackID),
		zap.Bool("custom_start", req.FEN != ""),
	)
	return s.View(), nil
}
