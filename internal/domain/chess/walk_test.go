package chess

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	nchess "github.com/notnil/chess"
)

// walk plays random legal games and calls visit on every position reached.
func walk(t *testing.T, games, maxPlies int, visit func(b *Board, legal []Move)) {
	t.Helper()
	rng := rand.New(rand.NewPCG(20240601, uint64(games)))
	for g := 0; g < games; g++ {
		b := NewBoard()
		for ply := 0; ply < maxPlies; ply++ {
			legal := LegalMoves(&b, b.Turn())
			visit(&b, legal)
			if len(legal) == 0 {
				break
			}
			next, err := b.Play(legal[rng.IntN(len(legal))])
			if err != nil {
				t.Fatalf("game %d ply %d: Play: %v", g, ply, err)
			}
			b = next
		}
	}
}

func TestLegalMovesNeverExposeKing(t *testing.T) {
	walk(t, 40, 200, func(b *Board, legal []Move) {
		mover := b.Turn()
		for _, m := range legal {
			next, err := b.Play(m)
			if err != nil {
				t.Fatalf("%s in %s: %v", m, b.FEN(), err)
			}
			if InCheck(&next, mover) {
				t.Fatalf("%s in %s leaves %s in check", m, b.FEN(), mover)
			}
		}
	})
}

func TestSnapshotRoundTripOnReachableBoards(t *testing.T) {
	walk(t, 40, 200, func(b *Board, _ []Move) {
		back, err := FromSnapshot(b.Snapshot())
		if err != nil {
			t.Fatalf("FromSnapshot(%s): %v", b.FEN(), err)
		}
		if back != *b {
			t.Fatalf("round trip changed %s into %s", b.FEN(), back.FEN())
		}
	})
}

func TestLegalMovesMatchReferenceEngine(t *testing.T) {
	walk(t, 25, 160, func(b *Board, legal []Move) {
		opt, err := nchess.FEN(b.FEN())
		if err != nil {
			t.Fatalf("reference FEN(%s): %v", b.FEN(), err)
		}
		ref := nchess.NewGame(opt)
		var want []Move
		for _, rm := range ref.ValidMoves() {
			m, err := ParseUCI(rm.String())
			if err != nil {
				t.Fatalf("reference move %s: %v", rm, err)
			}
			want = append(want, m)
		}
		if diff := cmp.Diff(uciList(want), uciList(legal)); diff != "" {
			t.Fatalf("legal moves in %s (-reference +ours):\n%s", b.FEN(), diff)
		}
	})
}
