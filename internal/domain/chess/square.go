package chess

import "fmt"

// Square is a board coordinate indexed rank*8+file, so a1 is 0 and h8 is 63.
type Square uint8

// NoSquare marks the absence of a square (e.g. no en-passant target).
const NoSquare Square = 64

// NewSquare returns the square at (file, rank), both zero-based.
// Off-board coordinates are rejected, never clamped.
func NewSquare(file, rank int) (Square, error) {
	if !onBoard(file, rank) {
		return NoSquare, fmt.Errorf("file %d rank %d: %w", file, rank, ErrInvalidSquare)
	}
	return square(file, rank), nil
}

// ParseSquare parses algebraic coordinates such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("%q: %w", s, ErrInvalidSquare)
	}
	file, rank := int(s[0])-'a', int(s[1])-'1'
	if !onBoard(file, rank) {
		return NoSquare, fmt.Errorf("%q: %w", s, ErrInvalidSquare)
	}
	return square(file, rank), nil
}

// File returns the zero-based file (a = 0).
func (s Square) File() int { return int(s) % 8 }

// Rank returns the zero-based rank (1st rank = 0).
func (s Square) Rank() int { return int(s) / 8 }

// Valid reports whether s is on the board.
func (s Square) Valid() bool { return s < NoSquare }

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{'a' + byte(s.File()), '1' + byte(s.Rank())})
}

func square(file, rank int) Square { return Square(rank*8 + file) }

func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}
