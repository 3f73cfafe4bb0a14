package chess

import "fmt"

// CastleSide selects kingside (O-O) or queenside (O-O-O) castling.
type CastleSide uint8

const (
	Kingside CastleSide = iota
	Queenside
)

// CastlingRights is a bit set of the four castling permissions.
type CastlingRights uint8

const (
	WhiteKingside CastlingRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
)

// CastleRight returns the single right for color c on the given side.
func CastleRight(c Color, side CastleSide) CastlingRights {
	r := WhiteKingside
	if side == Queenside {
		r = WhiteQueenside
	}
	if c == Black {
		r <<= 2
	}
	return r
}

// Has reports whether the right for c on side is still available.
func (r CastlingRights) Has(c Color, side CastleSide) bool {
	return r&CastleRight(c, side) != 0
}

func (r CastlingRights) String() string {
	if r == NoCastling {
		return "-"
	}
	out := make([]byte, 0, 4)
	for _, x := range []struct {
		right  CastlingRights
		letter byte
	}{{WhiteKingside, 'K'}, {WhiteQueenside, 'Q'}, {BlackKingside, 'k'}, {BlackQueenside, 'q'}} {
		if r&x.right != 0 {
			out = append(out, x.letter)
		}
	}
	return string(out)
}

// castle geometry, by side: king destination file, rook home file, rook
// destination file.
var castleFiles = [2]struct{ kingTo, rookFrom, rookTo int }{
	Kingside:  {6, 7, 5},
	Queenside: {2, 0, 3},
}

const kingHomeFile = 4

func homeRank(c Color) int {
	if c == White {
		return 0
	}
	return 7
}

// revokes maps a square to the castling rights lost when anything moves
// from or to it.
var revokes = map[Square]CastlingRights{
	square(4, 0): WhiteKingside | WhiteQueenside,
	square(7, 0): WhiteKingside,
	square(0, 0): WhiteQueenside,
	square(4, 7): BlackKingside | BlackQueenside,
	square(7, 7): BlackKingside,
	square(0, 7): BlackQueenside,
}

// Board is the full position: piece placement plus side to move,
// castling rights, en-passant target and move counters. It is a value;
// copying a Board yields an independent position.
type Board struct {
	squares  [64]Piece
	turn     Color
	castling CastlingRights
	epTarget Square
	halfmove int
	fullmove int
}

var backRank = [8]PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns the standard initial position.
func NewBoard() Board {
	b := EmptyBoard()
	for file := 0; file < 8; file++ {
		b.squares[square(file, 0)] = Piece{Kind: backRank[file], Color: White}
		b.squares[square(file, 1)] = Piece{Kind: Pawn, Color: White}
		b.squares[square(file, 6)] = Piece{Kind: Pawn, Color: Black}
		b.squares[square(file, 7)] = Piece{Kind: backRank[file], Color: Black}
	}
	b.castling = AllCastling
	return b
}

// EmptyBoard returns a board with no pieces, White to move, no castling
// rights and move number 1. It is a starting point for composing positions.
func EmptyBoard() Board {
	return Board{turn: White, epTarget: NoSquare, fullmove: 1}
}

// Occupant returns the piece on sq, if any.
func (b *Board) Occupant(sq Square) (Piece, bool) {
	if !sq.Valid() {
		return Piece{}, false
	}
	p := b.squares[sq]
	return p, !p.IsZero()
}

// Turn returns the side to move.
func (b *Board) Turn() Color { return b.turn }

// Castling returns the remaining castling rights.
func (b *Board) Castling() CastlingRights { return b.castling }

// EnPassant returns the en-passant target square set by the previous ply.
func (b *Board) EnPassant() (Square, bool) { return b.epTarget, b.epTarget.Valid() }

// HalfmoveClock returns plies since the last pawn move or capture.
func (b *Board) HalfmoveClock() int { return b.halfmove }

// FullmoveNumber starts at 1 and increments after each Black move.
func (b *Board) FullmoveNumber() int { return b.fullmove }

// King returns the square of c's king.
func (b *Board) King(c Color) (Square, bool) {
	for sq := Square(0); sq < NoSquare; sq++ {
		if p := b.squares[sq]; p.Kind == King && p.Color == c {
			return sq, true
		}
	}
	return NoSquare, false
}

// Place puts p on an empty square.
func (b *Board) Place(sq Square, p Piece) error {
	if !sq.Valid() {
		return fmt.Errorf("place on %d: %w", sq, ErrInvalidSquare)
	}
	if p.IsZero() {
		return inconsistent("place empty piece on %s", sq)
	}
	if occ := b.squares[sq]; !occ.IsZero() {
		return inconsistent("place %s on %s occupied by %s", p, sq, occ)
	}
	b.squares[sq] = p
	return nil
}

// Remove clears sq and returns what stood there.
func (b *Board) Remove(sq Square) (Piece, bool) {
	p, ok := b.Occupant(sq)
	if ok {
		b.squares[sq] = Piece{}
	}
	return p, ok
}

// Move relocates the piece on from to to, replacing any occupant of to,
// and returns the displaced piece. It does not check legality.
func (b *Board) Move(from, to Square) (Piece, error) {
	if !from.Valid() || !to.Valid() {
		return Piece{}, fmt.Errorf("move %s-%s: %w", from, to, ErrInvalidSquare)
	}
	if from == to {
		return Piece{}, inconsistent("move %s onto itself", from)
	}
	p, ok := b.Occupant(from)
	if !ok {
		return Piece{}, inconsistent("move from empty square %s", from)
	}
	captured := b.squares[to]
	b.squares[from] = Piece{}
	p.Moved = true
	b.squares[to] = p
	return captured, nil
}

// ApplyCastle moves c's king and rook to their castled squares.
func (b *Board) ApplyCastle(c Color, side CastleSide) error {
	rank := homeRank(c)
	geo := castleFiles[side]
	kingFrom, rookFrom := square(kingHomeFile, rank), square(geo.rookFrom, rank)
	if p := b.squares[kingFrom]; p.Kind != King || p.Color != c {
		return inconsistent("castle without %s king on %s", c, kingFrom)
	}
	if p := b.squares[rookFrom]; p.Kind != Rook || p.Color != c {
		return inconsistent("castle without %s rook on %s", c, rookFrom)
	}
	kingTo, rookTo := square(geo.kingTo, rank), square(geo.rookTo, rank)
	for _, sq := range []Square{kingTo, rookTo} {
		if sq != kingFrom && sq != rookFrom && !b.squares[sq].IsZero() {
			return inconsistent("castle onto occupied square %s", sq)
		}
	}
	king, rook := b.squares[kingFrom], b.squares[rookFrom]
	b.squares[kingFrom], b.squares[rookFrom] = Piece{}, Piece{}
	king.Moved, rook.Moved = true, true
	b.squares[kingTo], b.squares[rookTo] = king, rook
	return nil
}

// ApplyEnPassantCapture moves the pawn on from to to and removes the
// enemy pawn that stands beside from on to's file.
func (b *Board) ApplyEnPassantCapture(from, to Square) error {
	p, ok := b.Occupant(from)
	if !ok || p.Kind != Pawn {
		return inconsistent("en passant without pawn on %s", from)
	}
	victimSq := square(to.File(), from.Rank())
	if v := b.squares[victimSq]; v.Kind != Pawn || v.Color == p.Color {
		return inconsistent("en passant without enemy pawn on %s", victimSq)
	}
	b.squares[victimSq] = Piece{}
	_, err := b.Move(from, to)
	return err
}

// ApplyPromotion replaces the pawn on sq, which must stand on its last
// rank, with a piece of the given kind.
func (b *Board) ApplyPromotion(sq Square, kind PieceKind) error {
	p, ok := b.Occupant(sq)
	if !ok || p.Kind != Pawn {
		return inconsistent("promotion without pawn on %s", sq)
	}
	if sq.Rank() != homeRank(p.Color.Other()) {
		return inconsistent("promotion on %s is not the last rank", sq)
	}
	switch kind {
	case Knight, Bishop, Rook, Queen:
	default:
		return fmt.Errorf("promote to %s: %w", kind, ErrMalformedMove)
	}
	b.squares[sq] = Piece{Kind: kind, Color: p.Color, Moved: true}
	return nil
}

// Validate checks the structural invariants: exactly one king per color
// and no pawns on the first or last rank.
func (b *Board) Validate() error {
	var kings [2]int
	for sq, p := range b.squares {
		switch p.Kind {
		case King:
			kings[p.Color]++
		case Pawn:
			if r := Square(sq).Rank(); r == 0 || r == 7 {
				return inconsistent("pawn on back rank %s", Square(sq))
			}
		}
	}
	for c, n := range kings {
		if n != 1 {
			return inconsistent("%d %s kings", n, Color(c))
		}
	}
	return nil
}

// Play returns the position after m without checking legality. Flags
// missing from m are inferred from the board. The receiver is unchanged.
func (b Board) Play(m Move) (Board, error) {
	p, ok := b.Occupant(m.From)
	if !ok {
		return b, inconsistent("no piece on %s", m.From)
	}
	if !m.To.Valid() {
		return b, fmt.Errorf("move to %d: %w", m.To, ErrInvalidSquare)
	}
	if occ, ok := b.Occupant(m.To); ok && occ.Color == p.Color {
		return b, inconsistent("%s captures own piece on %s", p, m.To)
	}
	m = b.annotate(m)
	if err := b.apply(m); err != nil {
		return b, err
	}
	if err := b.Validate(); err != nil {
		return b, err
	}
	return b, nil
}

// annotate fills in capture, en-passant, castle and double-push flags.
func (b *Board) annotate(m Move) Move {
	p := b.squares[m.From]
	if !b.squares[m.To].IsZero() {
		m.Flags |= FlagCapture
	}
	switch p.Kind {
	case King:
		if m.From.File() == kingHomeFile && abs(m.To.File()-m.From.File()) == 2 && m.From.Rank() == m.To.Rank() {
			m.Flags |= FlagCastle
		}
	case Pawn:
		if m.To == b.epTarget && m.From.File() != m.To.File() && b.squares[m.To].IsZero() {
			m.Flags |= FlagEnPassant | FlagCapture
		}
		if abs(m.To.Rank()-m.From.Rank()) == 2 {
			m.Flags |= FlagDoublePush
		}
	}
	return m
}

// apply executes an annotated move and updates all side-effect metadata.
func (b *Board) apply(m Move) error {
	p := b.squares[m.From]
	var err error
	switch {
	case m.Flags&FlagCastle != 0:
		side := Kingside
		if m.To.File() < m.From.File() {
			side = Queenside
		}
		err = b.ApplyCastle(p.Color, side)
	case m.Flags&FlagEnPassant != 0:
		err = b.ApplyEnPassantCapture(m.From, m.To)
	default:
		if _, err = b.Move(m.From, m.To); err == nil && m.Promotion != NoKind {
			err = b.ApplyPromotion(m.To, m.Promotion)
		}
	}
	if err != nil {
		return err
	}

	b.castling &^= revokes[m.From] | revokes[m.To]
	b.epTarget = NoSquare
	if m.Flags&FlagDoublePush != 0 {
		b.epTarget = square(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
	}
	if p.Kind == Pawn || m.Flags&FlagCapture != 0 {
		b.halfmove = 0
	} else {
		b.halfmove++
	}
	if p.Color == Black {
		b.fullmove++
	}
	b.turn = p.Color.Other()
	return nil
}

// PositionKey identifies a position for repetition counting: placement,
// side to move, castling rights and en-passant target.
type PositionKey struct {
	placement [64]byte
	turn      Color
	castling  CastlingRights
	epTarget  Square
}

// Key returns the repetition key of b.
func (b *Board) Key() PositionKey {
	k := PositionKey{turn: b.turn, castling: b.castling, epTarget: b.epTarget}
	for sq, p := range b.squares {
		if !p.IsZero() {
			k.placement[sq] = p.FENLetter()
		}
	}
	return k
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
