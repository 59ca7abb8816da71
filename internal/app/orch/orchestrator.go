// Package orch is the single entry point both transports call into.
package orch

import (
	"context"
	"time"

	"github.com/dkeye/BaghChal/internal/app"
	"github.com/dkeye/BaghChal/internal/core"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/dkeye/BaghChal/internal/metrics"
	"github.com/rs/zerolog/log"
)

type Options struct {
	SweepInterval time.Duration
	RoomTTL       time.Duration
	Clock         core.Clock
	Policy        app.Policy
	Metrics       *metrics.Metrics
}

type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomManager
	Relay    *app.Relay
	Sweeper  *app.Sweeper
	Policy   app.Policy
	Metrics  *metrics.Metrics
}

// New wires the session manager around store. The registry doubles as the
// relay's notifier, so every room event reaches bound push connections.
func New(store core.RoomStore, opts Options) *Orchestrator {
	reg := app.NewRegistry()
	relay := app.NewRelay(store, reg, opts.Clock)
	o := &Orchestrator{
		Registry: reg,
		Rooms:    app.NewRoomManager(store, relay, opts.Clock),
		Relay:    relay,
		Sweeper:  app.NewSweeper(store, opts.SweepInterval, opts.RoomTTL, opts.Clock),
		Policy:   opts.Policy,
		Metrics:  opts.Metrics,
	}
	o.Sweeper.OnEvict = o.HandleEvicted
	return o
}

// RunSweeper blocks until ctx is done.
func (o *Orchestrator) RunSweeper(ctx context.Context) error {
	return o.Sweeper.Run(ctx)
}

// Connect registers a push connection. cancel must stop its pumps.
func (o *Orchestrator) Connect(conn domain.ConnID, sig core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.Attach(conn, sig, cancel)
	o.Metrics.SetConnections(o.Registry.Count())
}

// OnDisconnect frees whatever slot conn held. Unbound connections are a no-op
// apart from bookkeeping.
func (o *Orchestrator) OnDisconnect(conn domain.ConnID) {
	defer func() {
		o.Registry.Detach(conn)
		o.Metrics.SetConnections(o.Registry.Count())
	}()

	code, slot, ok := o.Registry.Unbind(conn)
	if !ok {
		return
	}
	res, err := o.Rooms.Leave(code, slot, conn)
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(conn)).Str("room", string(code)).Msg("disconnect: seat already gone")
		return
	}
	log.Info().Str("module", "orch").Str("conn", string(conn)).Str("room", string(code)).Bool("deleted", res.Deleted).Msg("disconnect freed slot")
	o.afterLeave(code, res)
}

// HandleEvicted runs after the sweeper removed snap's room.
func (o *Orchestrator) HandleEvicted(snap domain.Snapshot) {
	for i := 0; i < domain.RoomCapacity; i++ {
		slot := domain.Slot(i)
		o.Registry.UnbindIf(snap.Conn(slot), snap.Code, slot)
	}
	res := o.Relay.RoomClosed(snap, "expired")
	o.Metrics.Event(metrics.EventExpired)
	o.Metrics.SetRooms(o.Rooms.Count())
	o.Metrics.Dropped(len(res.Dropped))
}

type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

func (o *Orchestrator) Stats() Stats {
	return Stats{Rooms: o.Rooms.Count(), Connections: o.Registry.Count()}
}

func (o *Orchestrator) ListRooms() []domain.Summary {
	return o.Rooms.List()
}

func (o *Orchestrator) applyPolicy(code domain.RoomCode, res app.PublishResult) {
	o.Metrics.Dropped(len(res.Dropped))
	if o.Policy == nil {
		return
	}
	for _, conn := range res.Dropped {
		switch o.Policy.OnBackPressure(code, conn) {
		case app.KickConn:
			if o.Registry.Cancel(conn) {
				log.Warn().Str("module", "orch").Str("room", string(code)).Str("conn", string(conn)).Msg("kicked slow connection")
			}
		case app.DropFrame:
			log.Debug().Str("module", "orch").Str("room", string(code)).Str("conn", string(conn)).Msg("dropped event for slow connection")
		}
	}
}
