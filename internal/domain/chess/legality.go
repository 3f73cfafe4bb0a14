package chess

// IsSquareAttacked reports whether any piece of color by attacks sq,
// ignoring the attacker's own king safety. Pawns attack diagonally only;
// the square a pawn would advance to is not attacked by it.
func IsSquareAttacked(b *Board, sq Square, by Color) bool {
	file, rank := sq.File(), sq.Rank()

	pawnRank := rank - pawnDirection(by)
	for _, df := range [2]int{-1, 1} {
		if !onBoard(file+df, pawnRank) {
			continue
		}
		if p := b.squares[square(file+df, pawnRank)]; p.Kind == Pawn && p.Color == by {
			return true
		}
	}
	if attackedByStep(b, file, rank, by, knightOffsets, Knight) {
		return true
	}
	if attackedByStep(b, file, rank, by, kingOffsets, King) {
		return true
	}
	if attackedBySlide(b, file, rank, by, diagonals, Bishop) {
		return true
	}
	return attackedBySlide(b, file, rank, by, straights, Rook)
}

func attackedByStep(b *Board, file, rank int, by Color, offsets []offset, kind PieceKind) bool {
	for _, o := range offsets {
		f, r := file+o.df, rank+o.dr
		if !onBoard(f, r) {
			continue
		}
		if p := b.squares[square(f, r)]; p.Kind == kind && p.Color == by {
			return true
		}
	}
	return false
}

// attackedBySlide casts rays outward from (file, rank); the first piece hit
// attacks the origin if it is a queen or the given slider kind.
func attackedBySlide(b *Board, file, rank int, by Color, dirs []offset, kind PieceKind) bool {
	for _, d := range dirs {
		f, r := file+d.df, rank+d.dr
		for onBoard(f, r) {
			p := b.squares[square(f, r)]
			if !p.IsZero() {
				if p.Color == by && (p.Kind == kind || p.Kind == Queen) {
					return true
				}
				break
			}
			f += d.df
			r += d.dr
		}
	}
	return false
}

// InCheck reports whether c's king is attacked.
func InCheck(b *Board, c Color) bool {
	k, ok := b.King(c)
	return ok && IsSquareAttacked(b, k, c.Other())
}

// LegalMoves returns the pseudo-legal moves of every piece of color c that
// do not leave c's king attacked. Each candidate is tried on a scratch copy.
func LegalMoves(b *Board, c Color) []Move {
	var legal []Move
	for sq := Square(0); sq < NoSquare; sq++ {
		if p := b.squares[sq]; p.IsZero() || p.Color != c {
			continue
		}
		for _, m := range PseudoLegalMoves(b, sq) {
			if leavesKingSafe(b, m, c) {
				legal = append(legal, m)
			}
		}
	}
	return legal
}

// LegalMovesFrom is LegalMoves restricted to the piece on from.
func LegalMovesFrom(b *Board, from Square) []Move {
	p, ok := b.Occupant(from)
	if !ok {
		return nil
	}
	var legal []Move
	for _, m := range PseudoLegalMoves(b, from) {
		if leavesKingSafe(b, m, p.Color) {
			legal = append(legal, m)
		}
	}
	return legal
}

func leavesKingSafe(b *Board, m Move, c Color) bool {
	scratch := *b
	if err := scratch.apply(m); err != nil {
		return false
	}
	return !InCheck(&scratch, c)
}

func hasLegalMove(b *Board, c Color) bool {
	for sq := Square(0); sq < NoSquare; sq++ {
		if p := b.squares[sq]; p.IsZero() || p.Color != c {
			continue
		}
		for _, m := range PseudoLegalMoves(b, sq) {
			if leavesKingSafe(b, m, c) {
				return true
			}
		}
	}
	return false
}

// Status derives the rule-based status of the position for the side
// toMove: checkmate, stalemate, check or in progress. Draw rules that
// depend on history are applied by the game session.
func Status(b *Board, toMove Color) GameStatus {
	inCheck := InCheck(b, toMove)
	canMove := hasLegalMove(b, toMove)
	switch {
	case !canMove && inCheck:
		return GameStatus{Kind: StatusCheckmate, Color: toMove.Other()}
	case !canMove:
		return GameStatus{Kind: StatusStalemate}
	case inCheck:
		return GameStatus{Kind: StatusCheck, Color: toMove}
	}
	return GameStatus{Kind: StatusInProgress}
}

// HasInsufficientMaterial reports positions where neither side can mate:
// K v K, K+B v K, K+N v K and K+B v K+B with bishops on the same colour.
func HasInsufficientMaterial(b *Board) bool {
	var minors [2][]PieceKind
	var bishopLight [2]bool
	for sq, p := range b.squares {
		switch p.Kind {
		case NoKind, King:
			continue
		case Pawn, Rook, Queen:
			return false
		case Bishop:
			s := Square(sq)
			bishopLight[p.Color] = (s.File()+s.Rank())%2 == 1
		}
		minors[p.Color] = append(minors[p.Color], p.Kind)
	}
	w, bl := minors[White], minors[Black]
	switch {
	case len(w) == 0 && len(bl) == 0:
		return true
	case len(w) == 0 && len(bl) == 1, len(bl) == 0 && len(w) == 1:
		return true
	case len(w) == 1 && len(bl) == 1:
		return w[0] == Bishop && bl[0] == Bishop && bishopLight[White] == bishopLight[Black]
	}
	return false
}
