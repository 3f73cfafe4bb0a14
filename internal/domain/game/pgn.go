package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/randomtoy/chess-arbiter/internal/domain/chess"
)

const pgnLineWidth = 80

// PGN exports the game in Portable Game Notation. Games that did not start
// from the standard position carry SetUp and FEN tags.
func (s *Session) PGN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pgn()
}

func (s *Session) pgn() string {
	result := s.status.Result()
	var sb strings.Builder
	tag := func(name, value string) {
		fmt.Fprintf(&sb, "[%s %s]\n", name, strconv.Quote(value))
	}
	tag("Event", "Casual game")
	tag("Site", "chess-arbiter")
	tag("Date", s.createdAt.UTC().Format("2006.01.02"))
	tag("Round", "-")
	tag("White", s.white)
	tag("Black", s.black)
	tag("Result", result)
	if fen := s.start.FEN(); fen != chess.StartFEN {
		tag("SetUp", "1")
		tag("FEN", fen)
	}
	sb.WriteByte('\n')

	tokens := make([]string, 0, len(s.history)*3/2+1)
	number := s.start.FullmoveNumber()
	for i, p := range s.history {
		switch {
		case p.Color == chess.White:
			tokens = append(tokens, strconv.Itoa(number)+".")
		case i == 0:
			tokens = append(tokens, strconv.Itoa(number)+"...")
		}
		tokens = append(tokens, p.SAN)
		if p.Color == chess.Black {
			number++
		}
	}
	tokens = append(tokens, result)

	width := 0
	for _, tok := range tokens {
		switch {
		case width == 0:
		case width+1+len(tok) > pgnLineWidth:
			sb.WriteByte('\n')
			width = 0
		default:
			sb.WriteByte(' ')
			width++
		}
		sb.WriteString(tok)
		width += len(tok)
	}
	sb.WriteByte('\n')
	return sb.String()
}
