package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-arbiter/internal/domain/chess"
	"github.com/randomtoy/chess-arbiter/internal/domain/game"
	"github.com/randomtoy/chess-arbiter/internal/logging"
	"github.com/randomtoy/chess-arbiter/internal/ports"
)

// SubmitMoveRequest is the input to SubmitMove. A non-empty UCI wins over
// From/To/Promotion.
type SubmitMoveRequest struct {
	UCI       string
	From      string
	To        string
	Promotion string
}

func (r SubmitMoveRequest) proposal() (chess.Move, error) {
	if r.UCI != "" {
		return game.ParseUCI(r.UCI)
	}
	return game.ParseMove(r.From, r.To, r.Promotion)
}

// SubmitMoveResult is the output of an accepted SubmitMove.
type SubmitMoveResult struct {
	Result game.Result
	View   game.View
}

// MoveSubmitter handles move submission.
type MoveSubmitter struct {
	store   ports.SessionStore
	archive ports.Archive
	rl      ports.RateLimiter
	log     *zap.Logger
}

func NewMoveSubmitter(store ports.SessionStore, archive ports.Archive, rl ports.RateLimiter, log *zap.Logger) *MoveSubmitter {
	return &MoveSubmitter{store: store, archive: archive, rl: rl, log: logging.OrNop(log)}
}

// SubmitMove applies a move for identity in session id. The identity's
// bound color is the mover. Returns ports.ErrSessionNotFound,
// game.ErrNotParticipant, chess.ErrInvalidSquare, or the session's
// validation and fault errors. A move that ends the game archives it.
func (m *MoveSubmitter) SubmitMove(
	ctx context.Context,
	ip, token string,
	id uuid.UUID,
	identity string,
	req SubmitMoveRequest,
) (SubmitMoveResult, error) {
	if !m.rl.Allow(ip, token) {
		return SubmitMoveResult{}, ErrRateLimited
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return SubmitMoveResult{}, err
	}
	color, err := s.ColorOf(identity)
	if err != nil {
		return SubmitMoveResult{}, err
	}
	proposal, err := req.proposal()
	if err != nil {
		return SubmitMoveResult{}, err
	}

	res, err := s.SubmitMove(color, proposal, time.Now())
	if err != nil {
		m.logRejection(id, color, proposal, err)
		return SubmitMoveResult{}, err
	}

	m.log.Info("move_accepted",
		zap.String("session_id", id.String()),
		zap.String("color", color.String()),
		zap.String("uci", res.Ply.UCI),
		zap.String("san", res.Ply.SAN),
		zap.String("status", res.Status.String()),
	)
	if res.Status.Terminal() {
		archiveFinished(ctx, m.archive, m.log, s)
	}
	return SubmitMoveResult{Result: res, View: s.View()}, nil
}

func (m *MoveSubmitter) logRejection(id uuid.UUID, color chess.Color, proposal chess.Move, err error) {
	fields := []zap.Field{
		zap.String("session_id", id.String()),
		zap.String("color", color.String()),
		zap.String("uci", proposal.String()),
		zap.Error(err),
	}
	if errors.Is(err, game.ErrSessionFaulted) {
		m.log.Error("session_fault", fields...)
		return
	}
	m.log.Info("move_rejected", fields...)
}

// archiveFinished saves the record of a terminal session. Failures are
// logged and never reach the caller.
func archiveFinished(ctx context.Context, archive ports.Archive, log *zap.Logger, s *game.Session) {
	rec, ok := s.Record()
	if !ok {
		return
	}
	log.Info("session_terminal",
		zap.String("session_id", rec.ID.String()),
		zap.String("status", rec.Status),
		zap.String("result", rec.Result),
		zap.Int("plies", len(rec.Moves)),
	)
	if err := archive.Save(ctx, rec); err != nil {
		log.Error("archive_error", zap.String("session_id", rec.ID.String()), zap.Error(err))
	}
}
