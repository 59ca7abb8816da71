package signal

import (
	"sync"
	"time"

	"github.com/dkeye/BaghChal/internal/domain"
)

// ConnRateLimiter caps how many messages a connection may send per window.
type ConnRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.ConnID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewConnRateLimiter(limit int, interval time.Duration) *ConnRateLimiter {
	return &ConnRateLimiter{
		history:  make(map[domain.ConnID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *ConnRateLimiter) Allow(conn domain.ConnID) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[conn]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.history[conn] = fresh
		return false
	}
	rl.history[conn] = append(fresh, now)
	return true
}

// Forget drops the history of a closed connection.
func (rl *ConnRateLimiter) Forget(conn domain.ConnID) {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	delete(rl.history, conn)
	rl.mu.Unlock()
}
