package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/randomtoy/chess-arbiter/internal/logging"
	"github.com/randomtoy/chess-arbiter/internal/ports"
)

// Pruner forgets idle rate-limit clients.
type Pruner interface {
	Prune(cutoff time.Time) int
}

// Sweeper evicts finished sessions from the registry once they are older
// than ttl. Their records stay available in the archive.
type Sweeper struct {
	store  ports.SessionStore
	pruner Pruner
	ttl    time.Duration
	log    *zap.Logger
}

// NewSweeper builds a Sweeper. pruner may be nil.
func NewSweeper(store ports.SessionStore, pruner Pruner, ttl time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{store: store, pruner: pruner, ttl: ttl, log: logging.OrNop(log)}
}

// Sweep runs one pass as of now.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-s.ttl)
	removed, err := s.store.Sweep(ctx, cutoff)
	if err != nil {
		return err
	}
	pruned := 0
	if s.pruner != nil {
		pruned = s.pruner.Prune(cutoff)
	}
	if removed > 0 || pruned > 0 {
		s.log.Info("sweep", zap.Int("sessions", removed), zap.Int("clients", pruned))
	}
	return nil
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := s.Sweep(ctx, now); err != nil {
				s.log.Error("sweep", zap.Error(err))
			}
		}
	}
}
