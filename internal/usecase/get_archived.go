package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/randomtoy/chess-arbiter/internal/domain/game"
	"github.com/randomtoy/chess-arbiter/internal/ports"
)

// ArchiveReader serves finished-game records.
type ArchiveReader struct {
	archive ports.Archive
	rl      ports.RateLimiter
}

func NewArchiveReader(archive ports.Archive, rl ports.RateLimiter) *ArchiveReader {
	return &ArchiveReader{archive: archive, rl: rl}
}

func (r *ArchiveReader) GetArchived(ctx context.Context, ip, token string, id uuid.UUID) (game.Record, error) {
	if !r.rl.Allow(ip, token) {
		return game.Record{}, ErrRateLimited
	}
	return r.archive.Load(ctx, id)
}
