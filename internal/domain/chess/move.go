package chess

import "fmt"

// MoveFlags describe the side effects of a move.
type MoveFlags uint8

const (
	FlagCapture MoveFlags = 1 << iota
	FlagEnPassant
	FlagCastle
	FlagDoublePush
)

// Move is a proposal to move the piece on From to To. Promotion is NoKind
// unless a pawn reaches its last rank.
type Move struct {
	From      Square
	To        Square
	Promotion PieceKind
	Flags     MoveFlags
}

// Matches compares the structural identity of two moves: origin,
// destination and promotion. Flags are ignored.
func (m Move) Matches(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

func (m Move) IsCapture() bool   { return m.Flags&FlagCapture != 0 }
func (m Move) IsEnPassant() bool { return m.Flags&FlagEnPassant != 0 }
func (m Move) IsCastle() bool    { return m.Flags&FlagCastle != 0 }

// String returns the move in UCI long algebraic form, e.g. "e7e8q".
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoKind {
		s += string(m.Promotion.Letter() + 'a' - 'A')
	}
	return s
}

// ParsePromotion parses a promotion letter ("q", "r", "b", "n", either
// case). The empty string means no promotion.
func ParsePromotion(s string) (PieceKind, error) {
	if s == "" {
		return NoKind, nil
	}
	if len(s) == 1 {
		switch k := kindFromLetter(s[0]); k {
		case Knight, Bishop, Rook, Queen:
			return k, nil
		}
	}
	return NoKind, fmt.Errorf("promotion %q: %w", s, ErrMalformedMove)
}

// NewMove builds a proposal from algebraic squares and an optional
// promotion letter.
func NewMove(from, to, promotion string) (Move, error) {
	f, err := ParseSquare(from)
	if err != nil {
		return Move{}, err
	}
	t, err := ParseSquare(to)
	if err != nil {
		return Move{}, err
	}
	promo, err := ParsePromotion(promotion)
	if err != nil {
		return Move{}, err
	}
	return Move{From: f, To: t, Promotion: promo}, nil
}

// ParseUCI parses UCI move text such as "e2e4" or "b7b8n".
func ParseUCI(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("uci %q: %w", s, ErrMalformedMove)
	}
	return NewMove(s[0:2], s[2:4], s[4:])
}
