package chess

import "fmt"

type offset struct{ df, dr int }

var (
	knightOffsets = []offset{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = []offset{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	diagonals     = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	straights     = []offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

	promotionKinds = []PieceKind{Queen, Rook, Bishop, Knight}
)

func pawnDirection(c Color) int {
	if c == White {
		return 1
	}
	return -1
}

func pawnStartRank(c Color) int {
	if c == White {
		return 1
	}
	return 6
}

// PseudoLegalMoves returns every move the piece on from can make by its
// movement shape, ignoring whether the mover's king is left attacked.
// Castling candidates are only produced when the king's path is not
// attacked. An empty square yields no moves.
func PseudoLegalMoves(b *Board, from Square) []Move {
	p, ok := b.Occupant(from)
	if !ok {
		return nil
	}
	var moves []Move
	switch p.Kind {
	case Pawn:
		moves = pawnMoves(b, from, p.Color, moves)
	case Knight:
		moves = stepMoves(b, from, p.Color, knightOffsets, moves)
	case Bishop:
		moves = slideMoves(b, from, p.Color, diagonals, moves)
	case Rook:
		moves = slideMoves(b, from, p.Color, straights, moves)
	case Queen:
		moves = slideMoves(b, from, p.Color, diagonals, moves)
		moves = slideMoves(b, from, p.Color, straights, moves)
	case King:
		moves = stepMoves(b, from, p.Color, kingOffsets, moves)
		moves = castleMoves(b, from, p, moves)
	default:
		panic(fmt.Sprintf("chess: unknown piece kind %d on %s", p.Kind, from))
	}
	return moves
}

func pawnMoves(b *Board, from Square, c Color, moves []Move) []Move {
	dir := pawnDirection(c)
	file, rank := from.File(), from.Rank()
	lastRank := homeRank(c.Other())

	ahead := rank + dir
	if !onBoard(file, ahead) {
		return moves
	}
	if one := square(file, ahead); b.squares[one].IsZero() {
		moves = addPawnMove(moves, Move{From: from, To: one}, ahead == lastRank)
		if rank == pawnStartRank(c) {
			if two := square(file, rank+2*dir); b.squares[two].IsZero() {
				moves = append(moves, Move{From: from, To: two, Flags: FlagDoublePush})
			}
		}
	}
	for _, df := range [2]int{-1, 1} {
		if !onBoard(file+df, ahead) {
			continue
		}
		to := square(file+df, ahead)
		if occ := b.squares[to]; !occ.IsZero() {
			if occ.Color != c {
				moves = addPawnMove(moves, Move{From: from, To: to, Flags: FlagCapture}, ahead == lastRank)
			}
		} else if to == b.epTarget {
			moves = append(moves, Move{From: from, To: to, Flags: FlagCapture | FlagEnPassant})
		}
	}
	return moves
}

// addPawnMove appends m, or its four promotion variants when the pawn
// reaches the last rank.
func addPawnMove(moves []Move, m Move, promotes bool) []Move {
	if !promotes {
		return append(moves, m)
	}
	for _, k := range promotionKinds {
		m.Promotion = k
		moves = append(moves, m)
	}
	return moves
}

func stepMoves(b *Board, from Square, c Color, offsets []offset, moves []Move) []Move {
	for _, o := range offsets {
		file, rank := from.File()+o.df, from.Rank()+o.dr
		if !onBoard(file, rank) {
			continue
		}
		to := square(file, rank)
		occ := b.squares[to]
		switch {
		case occ.IsZero():
			moves = append(moves, Move{From: from, To: to})
		case occ.Color != c:
			moves = append(moves, Move{From: from, To: to, Flags: FlagCapture})
		}
	}
	return moves
}

func slideMoves(b *Board, from Square, c Color, dirs []offset, moves []Move) []Move {
	for _, d := range dirs {
		file, rank := from.File()+d.df, from.Rank()+d.dr
		for onBoard(file, rank) {
			to := square(file, rank)
			occ := b.squares[to]
			if !occ.IsZero() {
				if occ.Color != c {
					moves = append(moves, Move{From: from, To: to, Flags: FlagCapture})
				}
				break
			}
			moves = append(moves, Move{From: from, To: to})
			file += d.df
			rank += d.dr
		}
	}
	return moves
}

// castleMoves adds castling candidates. The king and rook must be unmoved
// with the right still held, every square between them empty, and the
// king's start, transit and destination squares free of attack.
func castleMoves(b *Board, from Square, king Piece, moves []Move) []Move {
	c := king.Color
	rank := homeRank(c)
	if king.Moved || from != square(kingHomeFile, rank) {
		return moves
	}
	them := c.Other()
	for _, side := range [2]CastleSide{Kingside, Queenside} {
		if !b.castling.Has(c, side) {
			continue
		}
		geo := castleFiles[side]
		rook := b.squares[square(geo.rookFrom, rank)]
		if rook.Kind != Rook || rook.Color != c || rook.Moved {
			continue
		}
		if !emptyBetween(b, rank, kingHomeFile, geo.rookFrom) {
			continue
		}
		step := 1
		if geo.kingTo < kingHomeFile {
			step = -1
		}
		safe := true
		for file := kingHomeFile; ; file += step {
			if IsSquareAttacked(b, square(file, rank), them) {
				safe = false
				break
			}
			if file == geo.kingTo {
				break
			}
		}
		if safe {
			moves = append(moves, Move{From: from, To: square(geo.kingTo, rank), Flags: FlagCastle})
		}
	}
	return moves
}

func emptyBetween(b *Board, rank, fileA, fileB int) bool {
	lo, hi := fileA, fileB
	if lo > hi {
		lo, hi = hi, lo
	}
	for file := lo + 1; file < hi; file++ {
		if !b.squares[square(file, rank)].IsZero() {
			return false
		}
	}
	return true
}
