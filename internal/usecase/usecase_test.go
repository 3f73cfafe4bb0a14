package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/randomtoy/chess-arbiter/internal/adapters/memory"
	"github.com/randomtoy/chess-arbiter/internal/domain/chess"
	"github.com/randomtoy/chess-arbiter/internal/domain/game"
	"github.com/randomtoy/chess-arbiter/internal/ports"
	"github.com/randomtoy/chess-arbiter/internal/usecase"
)

type denyAll struct{}

func (denyAll) Allow(_, _ string) bool { return false }

type brokenArchive struct{}

func (brokenArchive) Save(context.Context, game.Record) error { return errors.New("disk full") }
func (brokenArchive) Load(context.Context, uuid.UUID) (game.Record, error) {
	return game.Record{}, ports.ErrArchiveNotFound
}

type fixture struct {
	store     *memory.Store
	archive   ports.Archive
	creator   *usecase.SessionCreator
	submitter *usecase.MoveSubmitter
	getter    *usecase.SessionGetter
	ender     *usecase.Terminator
	lister    *usecase.BindingLister
	reader    *usecase.ArchiveReader
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T, archive ports.Archive) *fixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)
	store := memory.New()
	rl := memory.AlwaysAllow{}
	return &fixture{
		store:     store,
		archive:   archive,
		creator:   usecase.NewSessionCreator(store, rl, log),
		submitter: usecase.NewMoveSubmitter(store, archive, rl, log),
		getter:    usecase.NewSessionGetter(store, rl),
		ender:     usecase.NewTerminator(store, archive, rl, log),
		lister:    usecase.NewBindingLister(store, rl),
		reader:    usecase.NewArchiveReader(archive, rl),
		logs:      logs,
	}
}

func (f *fixture) create(t *testing.T, fen string) uuid.UUID {
	t.Helper()
	v, err := f.creator.CreateSession(context.Background(), "127.0.0.1", "", usecase.CreateSessionRequest{
		WhiteID: "alice", BlackID: "bob", FEN: fen,
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return v.ID
}

func (f *fixture) move(id uuid.UUID, identity, uci string) (usecase.SubmitMoveResult, error) {
	return f.submitter.SubmitMove(context.Background(), "127.0.0.1", "", id, identity, usecase.SubmitMoveRequest{UCI: uci})
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t, memory.NewArchive())
	ctx := context.Background()

	v, err := f.creator.CreateSession(ctx, "ip", "", usecase.CreateSessionRequest{WhiteID: "alice", BlackID: "bob"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if v.Board.FEN() != chess.StartFEN || v.Status.Kind != chess.StatusInProgress {
		t.Fatalf("unexpected view %s %s", v.Board.FEN(), v.Status)
	}
	if f.logs.FilterMessage("session_create").Len() != 1 {
		t.Fatal("session_create not logged")
	}

	tests := []struct {
		name string
		req  usecase.CreateSessionRequest
		want error
	}{
		{"same player", usecase.CreateSessionRequest{WhiteID: "alice", BlackID: "alice"}, game.ErrInvalidPlayers},
		{"bad fen", usecase.CreateSessionRequest{WhiteID: "alice", BlackID: "bob", FEN: "8/8 w"}, chess.ErrInvalidFEN},
		{"finished position", usecase.CreateSessionRequest{WhiteID: "alice", BlackID: "bob", FEN: "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"}, game.ErrInvalidStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.creator.CreateSession(ctx, "ip", "", tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSubmitMoveRejections(t *testing.T) {
	f := newFixture(t, memory.NewArchive())
	id := f.create(t, "")

	tests := []struct {
		name     string
		id       uuid.UUID
		identity string
		req      usecase.SubmitMoveRequest
		want     error
	}{
		{"unknown session", uuid.New(), "alice", usecase.SubmitMoveRequest{UCI: "e2e4"}, ports.ErrSessionNotFound},
		{"stranger", id, "mallory", usecase.SubmitMoveRequest{UCI: "e2e4"}, game.ErrNotParticipant},
		{"black first", id, "bob", usecase.SubmitMoveRequest{UCI: "e7e5"}, game.ErrNotYourTurn},
		{"off board", id, "alice", usecase.SubmitMoveRequest{From: "e2", To: "e9"}, chess.ErrInvalidSquare},
		{"bad promotion", id, "alice", usecase.SubmitMoveRequest{From: "e2", To: "e4", Promotion: "x"}, game.ErrIllegalMove},
		{"illegal", id, "alice", usecase.SubmitMoveRequest{From: "e2", To: "e5"}, game.ErrIllegalMove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.submitter.SubmitMove(context.Background(), "ip", "", tt.id, tt.identity, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
	if n := f.logs.FilterMessage("move_rejected").Len(); n == 0 {
		t.Fatal("rejections not logged")
	}
}

func TestSubmitMoveArchivesFinishedGame(t *testing.T) {
	f := newFixture(t, memory.NewArchive())
	id := f.create(t, "")

	for i, uci := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		identity := "alice"
		if i%2 == 1 {
			identity = "bob"
		}
		res, err := f.move(id, identity, uci)
		if err != nil {
			t.Fatalf("%s: %v", uci, err)
		}
		if i == 3 && (res.Result.Status.Kind != chess.StatusCheckmate || res.View.FinishedAt == nil) {
			t.Fatalf("final status %s", res.Result.Status)
		}
	}

	rec, err := f.reader.GetArchived(context.Background(), "ip", "", id)
	if err != nil {
		t.Fatalf("GetArchived: %v", err)
	}
	if rec.Result != "0-1" || len(rec.Moves) != 4 || rec.White != "alice" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if f.logs.FilterMessage("session_terminal").Len() != 1 {
		t.Fatal("session_terminal not logged")
	}
}

func TestArchiveFailureDoesNotFailMove(t *testing.T) {
	f := newFixture(t, brokenArchive{})
	id := f.create(t, "")

	if _, err := f.ender.Resign(context.Background(), "ip", "", id, "bob"); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	entries := f.logs.FilterMessage("archive_error").All()
	if len(entries) != 1 {
		t.Fatalf("want one archive_error, got %d", len(entries))
	}
}

func TestResignAndAbort(t *testing.T) {
	f := newFixture(t, memory.NewArchive())
	ctx := context.Background()
	id := f.create(t, "")

	v, err := f.ender.Resign(ctx, "ip", "", id, "bob")
	if err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if want := (chess.GameStatus{Kind: chess.StatusResigned, Color: chess.White}); v.Status != want {
		t.Fatalf("want %s, got %s", want, v.Status)
	}
	if _, err := f.ender.Abort(ctx, "ip", "", id, "alice"); !errors.Is(err, game.ErrGameOver) {
		t.Fatalf("abort after resign: want ErrGameOver, got %v", err)
	}
	if _, err := f.move(id, "alice", "e2e4"); !errors.Is(err, game.ErrGameOver) {
		t.Fatalf("move after resign: want ErrGameOver, got %v", err)
	}

	other := f.create(t, "")
	if _, err := f.ender.Abort(ctx, "ip", "", other, "mallory"); !errors.Is(err, game.ErrNotParticipant) {
		t.Fatalf("stranger abort: want ErrNotParticipant, got %v", err)
	}
	v, err = f.ender.Abort(ctx, "ip", "", other, "alice")
	if err != nil || v.Status.Kind != chess.StatusAborted {
		t.Fatalf("Abort: %s %v", v.Status, err)
	}
	rec, err := f.reader.GetArchived(ctx, "ip", "", other)
	if err != nil || rec.Status != "aborted" {
		t.Fatalf("archived abort: %+v %v", rec, err)
	}
}

func TestGetterQueries(t *testing.T) {
	f := newFixture(t, memory.NewArchive())
	ctx := context.Background()
	id := f.create(t, "")

	moves, err := f.getter.LegalMoves(ctx, "ip", "", id)
	if err != nil || len(moves) != 20 {
		t.Fatalf("LegalMoves: %d %v", len(moves), err)
	}
	if _, err := f.move(id, "alice", "e2e4"); err != nil {
		t.Fatalf("move: %v", err)
	}
	v, err := f.getter.GetSession(ctx, "ip", "", id)
	if err != nil || len(v.History) != 1 || v.History[0].SAN != "e4" {
		t.Fatalf("GetSession: %+v %v", v.History, err)
	}
	pgn, err := f.getter.PGN(ctx, "ip", "", id)
	if err != nil || pgn == "" {
		t.Fatalf("PGN: %q %v", pgn, err)
	}
	if _, err := f.getter.GetSession(ctx, "ip", "", uuid.New()); !errors.Is(err, ports.ErrSessionNotFound) {
		t.Fatalf("unknown: want ErrSessionNotFound, got %v", err)
	}
}

func TestListBindings(t *testing.T) {
	f := newFixture(t, memory.NewArchive())
	id := f.create(t, "")

	got, err := f.lister.ListBindings(context.Background(), "ip", "", "bob")
	if err != nil {
		t.Fatalf("ListBindings: %v", err)
	}
	want := []ports.Binding{{SessionID: id, Color: chess.Black, Status: chess.GameStatus{Kind: chess.StatusInProgress}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bindings (-want +got):\n%s", diff)
	}
}

func TestRateLimited(t *testing.T) {
	store := memory.New()
	archive := memory.NewArchive()
	ctx := context.Background()
	rl := denyAll{}

	if _, err := usecase.NewSessionCreator(store, rl, nil).CreateSession(ctx, "ip", "", usecase.CreateSessionRequest{}); !errors.Is(err, usecase.ErrRateLimited) {
		t.Fatalf("create: %v", err)
	}
	if _, err := usecase.NewMoveSubmitter(store, archive, rl, nil).SubmitMove(ctx, "ip", "", uuid.New(), "a", usecase.SubmitMoveRequest{}); !errors.Is(err, usecase.ErrRateLimited) {
		t.Fatalf("submit: %v", err)
	}
	if _, err := usecase.NewSessionGetter(store, rl).GetSession(ctx, "ip", "", uuid.New()); !errors.Is(err, usecase.ErrRateLimited) {
		t.Fatalf("get: %v", err)
	}
	if _, err := usecase.NewTerminator(store, archive, rl, nil).Abort(ctx, "ip", "", uuid.New(), "a"); !errors.Is(err, usecase.ErrRateLimited) {
		t.Fatalf("abort: %v", err)
	}
	if _, err := usecase.NewBindingLister(store, rl).ListBindings(ctx, "ip", "", "a"); !errors.Is(err, usecase.ErrRateLimited) {
		t.Fatalf("bindings: %v", err)
	}
	if _, err := usecase.NewArchiveReader(archive, rl).GetArchived(ctx, "ip", "", uuid.New()); !errors.Is(err, usecase.ErrRateLimited) {
		t.Fatalf("archive: %v", err)
	}
}

type countingPruner struct{ cutoffs []time.Time }

func (p *countingPruner) Prune(cutoff time.Time) int {
	p.cutoffs = append(p.cutoffs, cutoff)
	return 0
}

func TestSweeper(t *testing.T) {
	f := newFixture(t, memory.NewArchive())
	ctx := context.Background()
	live := f.create(t, "")
	done := f.create(t, "")
	if _, err := f.ender.Abort(ctx, "ip", "", done, "alice"); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	pruner := &countingPruner{}
	sw := usecase.NewSweeper(f.store, pruner, 30*time.Minute, nil)

	if err := sw.Sweep(ctx, time.Now()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if _, err := f.store.Get(ctx, done); err != nil {
		t.Fatalf("swept before ttl: %v", err)
	}

	later := time.Now().Add(time.Hour)
	if err := sw.Sweep(ctx, later); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if _, err := f.store.Get(ctx, done); !errors.Is(err, ports.ErrSessionNotFound) {
		t.Fatalf("finished session not swept: %v", err)
	}
	if _, err := f.store.Get(ctx, live); err != nil {
		t.Fatalf("live session swept: %v", err)
	}
	if _, err := f.reader.GetArchived(ctx, "ip", "", done); err != nil {
		t.Fatalf("swept session left the archive: %v", err)
	}
	if len(pruner.cutoffs) != 2 || !pruner.cutoffs[1].Equal(later.Add(-30*time.Minute)) {
		t.Fatalf("pruner cutoffs %v", pruner.cutoffs)
	}
}

func TestSweeperRunStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sw := usecase.NewSweeper(memory.New(), nil, time.Minute, nil)
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx, time.Millisecond) }()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
