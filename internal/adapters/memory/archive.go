package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/randomtoy/chess-arbiter/internal/domain/game"
	"github.com/randomtoy/chess-arbiter/internal/ports"
)

// Archive is an in-memory ports.Archive, used when no database is configured.
type Archive struct {
	mu      sync.RWMutex
	records map[uuid.UUID]game.Record
}

func NewArchive() *Archive {
	return &Archive{records: make(map[uuid.UUID]game.Record)}
}

// Save stores rec, replacing any earlier record with the same id.
func (a *Archive) Save(_ context.Context, rec game.Record) error {
	rec.Moves = slices.Clone(rec.Moves)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records[rec.ID] = rec
	return nil
}

func (a *Archive) Load(_ context.Context, id uuid.UUID) (game.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rec, ok := a.records[id]
	if !ok {
		return game.Record{}, ports.ErrArchiveNotFound
	}
	rec.Moves = slices.Clone(rec.Moves)
	return rec, nil
}
