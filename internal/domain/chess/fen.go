package chess

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN builds a Board from Forsyth-Edwards Notation. The move counters
// may be omitted. Castling rights whose king or rook is off its home square
// are dropped. Piece move history cannot be expressed in FEN, so Moved is
// inferred: pawns off their start rank, and kings and rooks without a
// matching castling right.
func ParseFEN(fen string) (Board, error) {
	fields := strings.Fields(fen)
	if len(fields) != 4 && len(fields) != 6 {
		return Board{}, fmt.Errorf("want 4 or 6 fields, got %d: %w", len(fields), ErrInvalidFEN)
	}
	b := EmptyBoard()
	if err := parsePlacement(&b, fields[0]); err != nil {
		return Board{}, err
	}
	switch fields[1] {
	case "w":
		b.turn = White
	case "b":
		b.turn = Black
	default:
		return Board{}, fmt.Errorf("side to move %q: %w", fields[1], ErrInvalidFEN)
	}
	rights, err := parseCastling(fields[2])
	if err != nil {
		return Board{}, err
	}
	b.castling = rights
	if fields[3] != "-" {
		ep, err := ParseSquare(fields[3])
		if err != nil {
			return Board{}, fmt.Errorf("en passant %q: %w", fields[3], ErrInvalidFEN)
		}
		b.epTarget = ep
	}
	if len(fields) == 6 {
		if b.halfmove, err = strconv.Atoi(fields[4]); err != nil || b.halfmove < 0 {
			return Board{}, fmt.Errorf("halfmove clock %q: %w", fields[4], ErrInvalidFEN)
		}
		if b.fullmove, err = strconv.Atoi(fields[5]); err != nil || b.fullmove < 1 {
			return Board{}, fmt.Errorf("fullmove number %q: %w", fields[5], ErrInvalidFEN)
		}
	}

	if err := b.Validate(); err != nil {
		return Board{}, fmt.Errorf("%v: %w", err, ErrInvalidFEN)
	}
	if err := b.checkEnPassant(); err != nil {
		return Board{}, err
	}
	if InCheck(&b, b.turn.Other()) {
		return Board{}, fmt.Errorf("%s to move can capture the king: %w", b.turn, ErrInvalidFEN)
	}
	b.dropStaleRights()
	b.inferMoved()
	return b, nil
}

func parsePlacement(b *Board, field string) error {
	ranks := strings.Split(field, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("want 8 ranks, got %d: %w", len(ranks), ErrInvalidFEN)
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			kind := kindFromLetter(c)
			if kind == NoKind {
				return fmt.Errorf("piece %q: %w", c, ErrInvalidFEN)
			}
			if file > 7 {
				return fmt.Errorf("rank %d overflows: %w", rank+1, ErrInvalidFEN)
			}
			color := White
			if c >= 'a' {
				color = Black
			}
			b.squares[square(file, rank)] = Piece{Kind: kind, Color: color}
			file++
		}
		if file != 8 {
			return fmt.Errorf("rank %d has %d files: %w", rank+1, file, ErrInvalidFEN)
		}
	}
	return nil
}

func parseCastling(field string) (CastlingRights, error) {
	if field == "-" {
		return NoCastling, nil
	}
	var rights CastlingRights
	for i := 0; i < len(field); i++ {
		var r CastlingRights
		switch field[i] {
		case 'K':
			r = WhiteKingside
		case 'Q':
			r = WhiteQueenside
		case 'k':
			r = BlackKingside
		case 'q':
			r = BlackQueenside
		default:
			return NoCastling, fmt.Errorf("castling %q: %w", field, ErrInvalidFEN)
		}
		if rights&r != 0 {
			return NoCastling, fmt.Errorf("castling %q repeats %c: %w", field, field[i], ErrInvalidFEN)
		}
		rights |= r
	}
	return rights, nil
}

// checkEnPassant accepts a target only directly behind a pawn of the side
// that just moved, with the pawn's start square empty.
func (b *Board) checkEnPassant() error {
	if !b.epTarget.Valid() {
		return nil
	}
	mover := b.turn.Other()
	dir := pawnDirection(mover)
	file, rank := b.epTarget.File(), b.epTarget.Rank()
	if rank != pawnStartRank(mover)+dir {
		return fmt.Errorf("en passant %s on wrong rank: %w", b.epTarget, ErrInvalidFEN)
	}
	pawn := b.squares[square(file, rank+dir)]
	if pawn.Kind != Pawn || pawn.Color != mover ||
		!b.squares[b.epTarget].IsZero() || !b.squares[square(file, rank-dir)].IsZero() {
		return fmt.Errorf("en passant %s without double-pushed pawn: %w", b.epTarget, ErrInvalidFEN)
	}
	return nil
}

func (b *Board) dropStaleRights() {
	for _, c := range [2]Color{White, Black} {
		rank := homeRank(c)
		king := b.squares[square(kingHomeFile, rank)]
		for _, side := range [2]CastleSide{Kingside, Queenside} {
			rook := b.squares[square(castleFiles[side].rookFrom, rank)]
			if king.Kind != King || king.Color != c || rook.Kind != Rook || rook.Color != c {
				b.castling &^= CastleRight(c, side)
			}
		}
	}
}

func (b *Board) inferMoved() {
	for sq := range b.squares {
		p := &b.squares[sq]
		s := Square(sq)
		switch p.Kind {
		case Pawn:
			p.Moved = s.Rank() != pawnStartRank(p.Color)
		case King:
			p.Moved = !b.castling.Has(p.Color, Kingside) && !b.castling.Has(p.Color, Queenside)
		case Rook:
			p.Moved = true
			for _, side := range [2]CastleSide{Kingside, Queenside} {
				if s == square(castleFiles[side].rookFrom, homeRank(p.Color)) && b.castling.Has(p.Color, side) {
					p.Moved = false
				}
			}
		}
	}
}

// FEN renders b in Forsyth-Edwards Notation.
func (b *Board) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := b.squares[square(file, rank)]
			if p.IsZero() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.FENLetter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	side := "w"
	if b.turn == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", side, b.castling, b.epTarget, b.halfmove, b.fullmove)
	return sb.String()
}

// Snapshot is the dense serialisation of a Board: its FEN plus a
// hexadecimal bit mask (bit n = square n) of pieces that have moved.
type Snapshot struct {
	FEN   string `json:"fen"`
	Moved string `json:"moved"`
}

// Snapshot serialises b. FromSnapshot(b.Snapshot()) reproduces b exactly.
func (b *Board) Snapshot() Snapshot {
	var mask uint64
	for sq, p := range b.squares {
		if p.Moved {
			mask |= 1 << uint(sq)
		}
	}
	return Snapshot{FEN: b.FEN(), Moved: fmt.Sprintf("%016x", mask)}
}

// FromSnapshot rebuilds a Board from its Snapshot.
func FromSnapshot(s Snapshot) (Board, error) {
	b, err := ParseFEN(s.FEN)
	if err != nil {
		return Board{}, err
	}
	if len(s.Moved) != 16 {
		return Board{}, fmt.Errorf("moved mask %q: %w", s.Moved, ErrInvalidFEN)
	}
	mask, err := strconv.ParseUint(s.Moved, 16, 64)
	if err != nil {
		return Board{}, fmt.Errorf("moved mask %q: %w", s.Moved, ErrInvalidFEN)
	}
	for sq := range b.squares {
		moved := mask&(1<<uint(sq)) != 0
		if b.squares[sq].IsZero() {
			if moved {
				return Board{}, fmt.Errorf("moved mask marks empty %s: %w", Square(sq), ErrInvalidFEN)
			}
			continue
		}
		b.squares[sq].Moved = moved
	}
	return b, nil
}
