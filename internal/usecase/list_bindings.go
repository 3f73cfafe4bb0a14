package usecase

import (
	"context"

	"github.com/randomtoy/chess-arbiter/internal/ports"
)

// BindingLister lists the sessions a player is bound to.
type BindingLister struct {
	store ports.SessionStore
	rl    ports.RateLimiter
}

func NewBindingLister(store ports.SessionStore, rl ports.RateLimiter) *BindingLister {
	return &BindingLister{store: store, rl: rl}
}

func (l *BindingLister) ListBindings(ctx context.Context, ip, token, identity string) ([]ports.Binding, error) {
	if !l.rl.Allow(ip, token) {
		return nil, ErrRateLimited
	}
	return l.store.Bindings(ctx, identity)
}
