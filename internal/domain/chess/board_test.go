package chess

import (
	"errors"
	"testing"
)

func mustSquare(t *testing.T, s string) Square {
	t.Helper()
	sq, err := ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	return sq
}

func mustFEN(t *testing.T, fen string) Board {
	t.Helper()
	b, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return b
}

// play applies UCI moves in order, failing the test on any illegal move.
func play(t *testing.T, b Board, moves ...string) Board {
	t.Helper()
	for _, uci := range moves {
		m, err := ParseUCI(uci)
		if err != nil {
			t.Fatalf("ParseUCI(%q): %v", uci, err)
		}
		legal := false
		for _, lm := range LegalMoves(&b, b.Turn()) {
			if lm.Matches(m) {
				legal = true
				break
			}
		}
		if !legal {
			t.Fatalf("%s is not legal in %s", uci, b.FEN())
		}
		if b, err = b.Play(m); err != nil {
			t.Fatalf("Play(%s): %v", uci, err)
		}
	}
	return b
}

func TestNewBoardIsStartPosition(t *testing.T) {
	b := NewBoard()
	if got := b.FEN(); got != StartFEN {
		t.Fatalf("FEN: want %q, got %q", StartFEN, got)
	}
	if parsed := mustFEN(t, StartFEN); parsed != b {
		t.Fatal("ParseFEN(StartFEN) differs from NewBoard()")
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestNewSquareRejectsOffBoard(t *testing.T) {
	tests := []struct{ file, rank int }{{-1, 0}, {0, -1}, {8, 0}, {0, 8}, {100, 100}}
	for _, tt := range tests {
		if _, err := NewSquare(tt.file, tt.rank); !errors.Is(err, ErrInvalidSquare) {
			t.Errorf("NewSquare(%d, %d): want ErrInvalidSquare, got %v", tt.file, tt.rank, err)
		}
	}
	sq, err := NewSquare(4, 3)
	if err != nil || sq.String() != "e4" {
		t.Fatalf("NewSquare(4, 3): got %v, %v", sq, err)
	}
}

func TestParseSquare(t *testing.T) {
	for _, bad := range []string{"", "e", "e9", "i1", "a0", "e44", "E4"} {
		if _, err := ParseSquare(bad); !errors.Is(err, ErrInvalidSquare) {
			t.Errorf("ParseSquare(%q): want ErrInvalidSquare, got %v", bad, err)
		}
	}
	sq := mustSquare(t, "h8")
	if sq.File() != 7 || sq.Rank() != 7 || sq != 63 {
		t.Fatalf("h8: got file %d rank %d index %d", sq.File(), sq.Rank(), sq)
	}
}

func TestPlaceRejectsOccupiedSquare(t *testing.T) {
	b := EmptyBoard()
	e4 := mustSquare(t, "e4")
	if err := b.Place(e4, Piece{Kind: Knight, Color: White}); err != nil {
		t.Fatalf("Place: %v", err)
	}
	err := b.Place(e4, Piece{Kind: Bishop, Color: Black})
	if !errors.Is(err, ErrInconsistentBoard) {
		t.Fatalf("want ErrInconsistentBoard, got %v", err)
	}
	var ce *ConsistencyError
	if !errors.As(err, &ce) {
		t.Fatalf("want *ConsistencyError, got %T", err)
	}
	if p, _ := b.Occupant(e4); p.Kind != Knight {
		t.Fatalf("occupant changed to %s", p)
	}
}

func TestMoveRelocatesAndMarksMoved(t *testing.T) {
	b := EmptyBoard()
	a1, a8 := mustSquare(t, "a1"), mustSquare(t, "a8")
	_ = b.Place(a1, Piece{Kind: Rook, Color: White})
	_ = b.Place(a8, Piece{Kind: Rook, Color: Black})

	captured, err := b.Move(a1, a8)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if captured.Kind != Rook || captured.Color != Black {
		t.Fatalf("captured: got %s", captured)
	}
	if _, ok := b.Occupant(a1); ok {
		t.Fatal("a1 still occupied")
	}
	if p, _ := b.Occupant(a8); p.Color != White || !p.Moved {
		t.Fatalf("a8: got %+v", p)
	}
	if _, err := b.Move(a1, a8); !errors.Is(err, ErrInconsistentBoard) {
		t.Fatalf("move from empty square: want ErrInconsistentBoard, got %v", err)
	}
}

func TestValidateKingCount(t *testing.T) {
	b := EmptyBoard()
	_ = b.Place(mustSquare(t, "e1"), Piece{Kind: King, Color: White})
	if err := b.Validate(); !errors.Is(err, ErrInconsistentBoard) {
		t.Fatalf("missing black king: want ErrInconsistentBoard, got %v", err)
	}
	_ = b.Place(mustSquare(t, "e8"), Piece{Kind: King, Color: Black})
	if err := b.Validate(); err != nil {
		t.Fatalf("two kings: %v", err)
	}
	_ = b.Place(mustSquare(t, "d8"), Piece{Kind: King, Color: Black})
	if err := b.Validate(); !errors.Is(err, ErrInconsistentBoard) {
		t.Fatalf("extra black king: want ErrInconsistentBoard, got %v", err)
	}
}

func TestPlayLeavesReceiverUntouched(t *testing.T) {
	b := NewBoard()
	before := b
	next, err := b.Play(Move{From: mustSquare(t, "e2"), To: mustSquare(t, "e4")})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if b != before {
		t.Fatal("receiver mutated")
	}
	if next.Turn() != Black {
		t.Fatalf("turn: want black, got %s", next.Turn())
	}
}

func TestCastlingRightsRevokedPermanently(t *testing.T) {
	b := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")

	b = play(t, b, "h1h2", "a8a7")
	if got := b.Castling().String(); got != "Qk" {
		t.Fatalf("after rook moves: want Qk, got %s", got)
	}
	b = play(t, b, "h2h1", "a7a8")
	if got := b.Castling().String(); got != "Qk" {
		t.Fatalf("rooks returning must not restore rights: got %s", got)
	}
	b = play(t, b, "e1d1")
	if got := b.Castling().String(); got != "k" {
		t.Fatalf("after king move: want k, got %s", got)
	}
}

func TestCaptureOnRookSquareRevokesRight(t *testing.T) {
	b := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	b = play(t, b, "a1a8")
	if got := b.Castling().String(); got != "Kk" {
		t.Fatalf("want Kk, got %s", got)
	}
}

func TestEnPassantTargetLastsOnePly(t *testing.T) {
	b := play(t, NewBoard(), "e2e4")
	ep, ok := b.EnPassant()
	if !ok || ep.String() != "e3" {
		t.Fatalf("after e2e4: want e3, got %s (%v)", ep, ok)
	}
	b = play(t, b, "g8f6")
	if _, ok := b.EnPassant(); ok {
		t.Fatal("en-passant target must expire after one ply")
	}
}

func TestApplyEnPassantCaptureRemovesPawn(t *testing.T) {
	b := mustFEN(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2")
	b = play(t, b, "e5d6")
	if _, ok := b.Occupant(mustSquare(t, "d5")); ok {
		t.Fatal("captured pawn still on d5")
	}
	if b.HalfmoveClock() != 0 {
		t.Fatalf("halfmove clock: want 0, got %d", b.HalfmoveClock())
	}
}

func TestApplyPromotion(t *testing.T) {
	b := mustFEN(t, "4k3/1P6/8/8/8/8/8/4K3 w - - 0 1")
	b = play(t, b, "b7b8n")
	p, _ := b.Occupant(mustSquare(t, "b8"))
	if p.Kind != Knight || p.Color != White {
		t.Fatalf("b8: got %s", p)
	}

	c := EmptyBoard()
	_ = c.Place(mustSquare(t, "b6"), Piece{Kind: Pawn, Color: White})
	if err := c.ApplyPromotion(mustSquare(t, "b6"), Queen); !errors.Is(err, ErrInconsistentBoard) {
		t.Fatalf("promotion off the last rank: want ErrInconsistentBoard, got %v", err)
	}
}

func TestCountersAdvance(t *testing.T) {
	b := play(t, NewBoard(), "g1f3", "g8f6", "f3g1")
	if b.HalfmoveClock() != 3 {
		t.Fatalf("halfmove: want 3, got %d", b.HalfmoveClock())
	}
	if b.FullmoveNumber() != 2 {
		t.Fatalf("fullmove: want 2, got %d", b.FullmoveNumber())
	}
	b = play(t, b, "e7e5")
	if b.HalfmoveClock() != 0 || b.FullmoveNumber() != 3 {
		t.Fatalf("after pawn move: halfmove %d fullmove %d", b.HalfmoveClock(), b.FullmoveNumber())
	}
}
