package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/randomtoy/chess-arbiter/internal/domain/chess"
)

// MoveRecord is one archived ply.
type MoveRecord struct {
	Ply      int
	Color    string
	UCI      string
	SAN      string
	FENAfter string
	PlayedAt time.Time
}

// Record is the archived form of a finished session.
type Record struct {
	ID         uuid.UUID
	White      string
	Black      string
	Status     string
	Winner     *string
	Result     string
	StartFEN   string
	Final      chess.Snapshot
	Moves      []MoveRecord
	PGN        string
	CreatedAt  time.Time
	FinishedAt time.Time
}

// Record returns the archive form of the session. ok is false while the
// game is still being played.
func (s *Session) Record() (rec Record, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status.Terminal() {
		return Record{}, false
	}
	rec = Record{
		ID:         s.id,
		White:      s.white,
		Black:      s.black,
		Status:     s.status.Kind.String(),
		Result:     s.status.Result(),
		StartFEN:   s.start.FEN(),
		Final:      s.board.Snapshot(),
		Moves:      make([]MoveRecord, 0, len(s.history)),
		PGN:        s.pgn(),
		CreatedAt:  s.createdAt,
		FinishedAt: s.finishedAt,
	}
	if w, decided := s.status.Winner(); decided {
		name := w.String()
		rec.Winner = &name
	}
	for _, p := range s.history {
		rec.Moves = append(rec.Moves, MoveRecord{
			Ply:      p.Number,
			Color:    p.Color.String(),
			UCI:      p.UCI,
			SAN:      p.SAN,
			FENAfter: p.FENAfter,
			PlayedAt: p.At,
		})
	}
	return rec, true
}

// ParseMove builds a proposal from algebraic squares and an optional
// promotion letter. Off-board squares yield chess.ErrInvalidSquare; any
// other malformed input is reported as ErrIllegalMove.
func ParseMove(from, to, promotion string) (chess.Move, error) {
	m, err := chess.NewMove(from, to, promotion)
	return m, proposalErr(err)
}

// ParseUCI is ParseMove for UCI move text such as "e7e8q".
func ParseUCI(uci string) (chess.Move, error) {
	m, err := chess.ParseUCI(uci)
	return m, proposalErr(err)
}

func proposalErr(err error) error {
	if err == nil || errors.Is(err, chess.ErrInvalidSquare) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrIllegalMove, err)
}
