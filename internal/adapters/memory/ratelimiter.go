package memory

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// AlwaysAllow is a stub RateLimiter that permits every request.
type AlwaysAllow struct{}

func (AlwaysAllow) Allow(_, _ string) bool { return true }

// TokenBucket is a per-client token-bucket RateLimiter. Clients are keyed
// by their client token when present, else by IP.
type TokenBucket struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewTokenBucket allows rps requests per second per client with bursts of
// up to burst requests.
func NewTokenBucket(rps float64, burst int) *TokenBucket {
	return &TokenBucket{
		limit:   rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *TokenBucket) Allow(ip, token string) bool {
	key := "ip:" + ip
	if token != "" {
		key = "token:" + token
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.clients[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// Prune forgets clients not seen since cutoff and returns how many.
func (l *TokenBucket) Prune(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, b := range l.clients {
		if b.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			n++
		}
	}
	return n
}
