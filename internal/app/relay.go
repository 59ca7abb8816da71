package app

import (
	"bytes"
	"encoding/json"

	"github.com/dkeye/BaghChal/internal/core"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/rs/zerolog/log"
)

// PublishResult reports delivery stats/backpressure to the orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []domain.ConnID
}

// Relay stores the latest game state and pushes room events to connected
// slots. With a nil Notifier it is pull-only: clients poll GetState.
type Relay struct {
	rooms  core.RoomStore
	notify core.Notifier
	now    core.Clock
}

func NewRelay(rooms core.RoomStore, notify core.Notifier, clock core.Clock) *Relay {
	if clock == nil {
		clock = realClock
	}
	return &Relay{rooms: rooms, notify: notify, now: clock}
}

// UpdateState overwrites the room's game state and forwards it to every
// connected slot other than sender.
func (r *Relay) UpdateState(code domain.RoomCode, state json.RawMessage, sender domain.Slot) (PublishResult, error) {
	if err := domain.ValidateCode(code); err != nil {
		return PublishResult{}, err
	}
	trimmed := bytes.TrimSpace(state)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return PublishResult{}, domain.ErrStateEmpty
	}
	if !json.Valid(trimmed) {
		return PublishResult{}, domain.ErrStateJSON
	}
	stored := append(json.RawMessage(nil), trimmed...)

	snap, _, err := r.rooms.Update(code, func(room *domain.Room) error {
		room.GameState = stored
		room.Touch(r.now())
		return nil
	})
	if err != nil {
		return PublishResult{}, err
	}
	log.Debug().Str("module", "app.relay").Str("room", string(code)).Str("sender", sender.String()).Int("bytes", len(stored)).Msg("state updated")
	return r.fanout(snap, sender, core.OpponentMove(code, snap.GameState)), nil
}

func (r *Relay) GetState(code domain.RoomCode) (domain.Snapshot, error) {
	return r.rooms.Get(code)
}

// PlayersReady tells both occupants the match can start.
func (r *Relay) PlayersReady(snap domain.Snapshot) PublishResult {
	return r.fanout(snap, domain.SlotNone, core.PlayersReady(snap.Code, snap.Players))
}

// OpponentLeft notifies whoever is still seated in a surviving room.
func (r *Relay) OpponentLeft(snap domain.Snapshot) PublishResult {
	return r.fanout(snap, domain.SlotNone, core.OpponentLeft(snap.Code))
}

func (r *Relay) RoomClosed(snap domain.Snapshot, reason string) PublishResult {
	return r.fanout(snap, domain.SlotNone, core.RoomClosed(snap.Code, reason))
}

func (r *Relay) fanout(snap domain.Snapshot, except domain.Slot, ev core.Event) PublishResult {
	res := PublishResult{}
	if r.notify == nil {
		return res
	}
	for i := 0; i < domain.RoomCapacity; i++ {
		slot := domain.Slot(i)
		if slot == except {
			continue
		}
		conn := snap.Conn(slot)
		if conn == "" {
			continue
		}
		if err := r.notify.Deliver(conn, ev); err != nil {
			log.Warn().Err(err).Str("module", "app.relay").Str("room", string(snap.Code)).Str("conn", string(conn)).Str("event", ev.Type).Msg("delivery failed")
			res.Dropped = append(res.Dropped, conn)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "app.relay").Str("room", string(snap.Code)).Str("event", ev.Type).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("fanout result")
	return res
}
