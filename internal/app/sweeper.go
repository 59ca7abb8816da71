package app

import (
	"context"
	"time"

	"github.com/dkeye/BaghChal/internal/core"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSweepInterval = 30 * time.Minute
	DefaultRoomTTL       = 2 * time.Hour
)

// Sweeper evicts rooms idle for longer than TTL.
type Sweeper struct {
	rooms    core.RoomStore
	ttl      time.Duration
	interval time.Duration
	now      core.Clock

	// OnEvict runs after a room is removed, outside any store lock.
	OnEvict func(domain.Snapshot)
}

func NewSweeper(rooms core.RoomStore, interval, ttl time.Duration, clock core.Clock) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if ttl <= 0 {
		ttl = DefaultRoomTTL
	}
	if clock == nil {
		clock = realClock
	}
	return &Sweeper{rooms: rooms, ttl: ttl, interval: interval, now: clock}
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Info().Str("module", "app.sweeper").Dur("interval", s.interval).Dur("ttl", s.ttl).Msg("sweeper started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.sweeper").Msg("sweeper stopped")
			return nil
		case <-ticker.C:
			s.Sweep(s.now())
		}
	}
}

func (s *Sweeper) expired(now time.Time) func(*domain.Room) bool {
	return func(r *domain.Room) bool { return now.Sub(r.LastActivity) > s.ttl }
}

// Sweep removes every room whose last activity is older than TTL and returns
// how many were removed. Candidates come from a snapshot; each one is checked
// again under its shard lock, so a room touched meanwhile survives.
func (s *Sweeper) Sweep(now time.Time) int {
	var stale []domain.RoomCode
	s.rooms.Range(func(snap domain.Snapshot) bool {
		if now.Sub(snap.LastActivity) > s.ttl {
			stale = append(stale, snap.Code)
		}
		return true
	})

	evicted := 0
	isExpired := s.expired(now)
	for _, code := range stale {
		snap, ok := s.rooms.DeleteIf(code, isExpired)
		if !ok {
			continue
		}
		evicted++
		log.Info().Str("module", "app.sweeper").Str("room", string(code)).Time("last_activity", snap.LastActivity).Msg("room expired")
		if s.OnEvict != nil {
			s.OnEvict(snap)
		}
	}
	if evicted > 0 {
		log.Info().Str("module", "app.sweeper").Int("evicted", evicted).Int("remaining", s.rooms.Len()).Msg("sweep done")
	}
	return evicted
}
