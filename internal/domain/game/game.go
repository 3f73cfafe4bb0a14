package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randomtoy/chess-arbiter/internal/domain/chess"
)

// Sentinel errors returned by Session; the transport layer maps these to HTTP codes.
var (
	ErrNotYourTurn    = errors.New("not_your_turn")
	ErrGameOver       = errors.New("game_over")
	ErrIllegalMove    = errors.New("illegal_move")
	ErrNotParticipant = errors.New("not_participant")
	ErrSessionFaulted = errors.New("session_faulted")
	ErrInvalidPlayers = errors.New("invalid_players")
	ErrInvalidStart   = errors.New("invalid_start")
)

// Ply is one accepted move in a session's history.
type Ply struct {
	Number   int
	Color    chess.Color
	Move     chess.Move
	UCI      string
	SAN      string
	FENAfter string
	At       time.Time
}

// Result is returned by an accepted SubmitMove.
type Result struct {
	Ply    Ply
	Board  chess.Board
	Status chess.GameStatus
}

// Session owns one game. All methods are safe for concurrent use; moves,
// resignations and aborts are serialized by the session mutex so legality
// is always judged against the current board.
type Session struct {
	mu sync.Mutex

	id    uuid.UUID
	white string
	black string

	start   chess.Board
	board   chess.Board
	history []Ply
	seen    map[chess.PositionKey]int
	status  chess.GameStatus
	fault   error

	createdAt  time.Time
	updatedAt  time.Time
	finishedAt time.Time
}

// New starts a session from the standard initial position.
func New(id uuid.UUID, white, black string, now time.Time) (*Session, error) {
	return NewFromBoard(id, white, black, chess.NewBoard(), now)
}

// NewFromBoard starts a session from an arbitrary position. The position
// must not already be terminal.
func NewFromBoard(id uuid.UUID, white, black string, start chess.Board, now time.Time) (*Session, error) {
	if white == "" || black == "" || white == black {
		return nil, ErrInvalidPlayers
	}
	if err := start.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStart, err)
	}
	s := &Session{
		id:        id,
		white:     white,
		black:     black,
		start:     start,
		board:     start,
		seen:      map[chess.PositionKey]int{start.Key(): 1},
		createdAt: now,
		updatedAt: now,
	}
	s.status = s.evaluate()
	if s.status.Terminal() {
		return nil, fmt.Errorf("start position is %s: %w", s.status, ErrInvalidStart)
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Players returns the white and black identities.
func (s *Session) Players() (white, black string) { return s.white, s.black }

// ColorOf returns the color bound to identity.
func (s *Session) ColorOf(identity string) (chess.Color, error) {
	switch identity {
	case s.white:
		return chess.White, nil
	case s.black:
		return chess.Black, nil
	}
	return chess.White, ErrNotParticipant
}

// Status returns the current game status.
func (s *Session) Status() chess.GameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SubmitMove validates proposal for color and applies it. Rejections leave
// the session untouched. Checks run in order: turn, terminal status, legality.
//
// Returns:
//   - ErrNotYourTurn   : color is not the side to move
//   - ErrGameOver      : the game already reached a terminal status
//   - ErrIllegalMove   : proposal is not one of the legal moves
//   - ErrSessionFaulted: the board hit an internal consistency error (now or earlier)
func (s *Session) SubmitMove(color chess.Color, proposal chess.Move, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.faulted(); err != nil {
		return Result{}, err
	}
	if color != s.board.Turn() {
		return Result{}, ErrNotYourTurn
	}
	if s.status.Terminal() {
		return Result{}, ErrGameOver
	}
	move, ok := s.match(color, proposal)
	if !ok {
		return Result{}, ErrIllegalMove
	}

	san := chess.SAN(&s.board, move)
	next, err := s.board.Play(move)
	if err != nil {
		s.fault = err
		s.updatedAt = now
		return Result{}, s.faulted()
	}

	s.board = next
	s.seen[next.Key()]++
	ply := Ply{
		Number:   len(s.history) + 1,
		Color:    color,
		Move:     move,
		UCI:      move.String(),
		SAN:      san,
		FENAfter: next.FEN(),
		At:       now,
	}
	s.history = append(s.history, ply)
	s.status = s.evaluate()
	s.touch(now)
	return Result{Ply: ply, Board: next, Status: s.status}, nil
}

// Resign ends the game in favour of color's opponent.
func (s *Session) Resign(color chess.Color, now time.Time) (chess.GameStatus, error) {
	return s.terminate(chess.GameStatus{Kind: chess.StatusResigned, Color: color.Other()}, now)
}

// Abort ends the game without a result.
func (s *Session) Abort(now time.Time) (chess.GameStatus, error) {
	return s.terminate(chess.GameStatus{Kind: chess.StatusAborted}, now)
}

func (s *Session) terminate(st chess.GameStatus, now time.Time) (chess.GameStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faulted(); err != nil {
		return chess.GameStatus{}, err
	}
	if s.status.Terminal() {
		return chess.GameStatus{}, ErrGameOver
	}
	s.status = st
	s.touch(now)
	return st, nil
}

// LegalMoves lists the moves available to the side to move. A finished or
// faulted session has none.
func (s *Session) LegalMoves() []chess.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fault != nil || s.status.Terminal() {
		return nil
	}
	return chess.LegalMoves(&s.board, s.board.Turn())
}

// View is a consistent copy of a session's state.
type View struct {
	ID         uuid.UUID
	White      string
	Black      string
	Board      chess.Board
	Status     chess.GameStatus
	History    []Ply
	Fault      error
	CreatedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt *time.Time
}

// View copies the session state under its lock.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:        s.id,
		White:     s.white,
		Black:     s.black,
		Board:     s.board,
		Status:    s.status,
		History:   append([]Ply(nil), s.history...),
		Fault:     s.fault,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if !s.finishedAt.IsZero() {
		at := s.finishedAt
		v.FinishedAt = &at
	}
	return v
}

// FinishedBefore reports whether the session ended, or faulted, before t.
func (s *Session) FinishedBefore(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fault != nil {
		return s.updatedAt.Before(t)
	}
	return !s.finishedAt.IsZero() && s.finishedAt.Before(t)
}

func (s *Session) match(color chess.Color, proposal chess.Move) (chess.Move, bool) {
	for _, m := range chess.LegalMoves(&s.board, color) {
		if m.Matches(proposal) {
			return m, true
		}
	}
	return chess.Move{}, false
}

// evaluate derives the status of the current board. Checkmate and
// stalemate take precedence over the draw rules.
func (s *Session) evaluate() chess.GameStatus {
	st := chess.Status(&s.board, s.board.Turn())
	if st.Terminal() {
		return st
	}
	switch {
	case s.board.HalfmoveClock() >= 100:
		return chess.GameStatus{Kind: chess.StatusDrawFiftyMove}
	case s.seen[s.board.Key()] >= 3:
		return chess.GameStatus{Kind: chess.StatusDrawRepetition}
	case chess.HasInsufficientMaterial(&s.board):
		return chess.GameStatus{Kind: chess.StatusDrawInsufficientMaterial}
	}
	return st
}

func (s *Session) touch(now time.Time) {
	s.updatedAt = now
	if s.status.Terminal() && s.finishedAt.IsZero() {
		s.finishedAt = now
	}
}

func (s *Session) faulted() error {
	if s.fault == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrSessionFaulted, s.fault)
}
