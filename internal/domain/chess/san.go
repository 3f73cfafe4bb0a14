package chess

import "strings"

// SAN renders m, which must be legal on b, in Standard Algebraic
// Notation including the check or mate suffix.
func SAN(b *Board, m Move) string {
	p := b.squares[m.From]
	m = b.annotate(m)

	var sb strings.Builder
	switch {
	case m.IsCastle() && m.To.File() > m.From.File():
		sb.WriteString("O-O")
	case m.IsCastle():
		sb.WriteString("O-O-O")
	case p.Kind == Pawn:
		if m.IsCapture() {
			sb.WriteByte('a' + byte(m.From.File()))
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.Promotion != NoKind {
			sb.WriteByte('=')
			sb.WriteByte(m.Promotion.Letter())
		}
	default:
		sb.WriteByte(p.Kind.Letter())
		sb.WriteString(disambiguation(b, m, p))
		if m.IsCapture() {
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
	}

	next := *b
	if err := next.apply(m); err != nil {
		return sb.String()
	}
	switch st := Status(&next, next.turn); st.Kind {
	case StatusCheckmate:
		sb.WriteByte('#')
	case StatusCheck:
		sb.WriteByte('+')
	}
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed to tell
// m apart from other legal moves of the same piece kind to the same square.
func disambiguation(b *Board, m Move, p Piece) string {
	var rivals []Square
	for _, o := range LegalMoves(b, p.Color) {
		if o.To == m.To && o.From != m.From && b.squares[o.From].Kind == p.Kind {
			rivals = append(rivals, o.From)
		}
	}
	if len(rivals) == 0 {
		return ""
	}
	sameFile, sameRank := false, false
	for _, sq := range rivals {
		sameFile = sameFile || sq.File() == m.From.File()
		sameRank = sameRank || sq.Rank() == m.From.Rank()
	}
	switch {
	case !sameFile:
		return m.From.String()[:1]
	case !sameRank:
		return m.From.String()[1:]
	}
	return m.From.String()
}
