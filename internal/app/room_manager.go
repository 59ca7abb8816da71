package app

import (
	"fmt"
	"sort"
	"time"

	"github.com/dkeye/BaghChal/internal/core"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/rs/zerolog/log"
)

func realClock() time.Time { return time.Now() }

type JoinResult struct {
	Slot    domain.Slot
	Room    domain.Snapshot
	Ready   bool
	Publish PublishResult
}

type LeaveResult struct {
	Slot    domain.Slot
	Conn    domain.ConnID
	Deleted bool
	Room    domain.Snapshot
	Publish PublishResult
}

// RoomManager enforces the create/join/leave lifecycle on top of a RoomStore.
type RoomManager struct {
	rooms core.RoomStore
	relay *Relay
	now   core.Clock
}

func NewRoomManager(rooms core.RoomStore, relay *Relay, clock core.Clock) *RoomManager {
	if clock == nil {
		clock = realClock
	}
	return &RoomManager{rooms: rooms, relay: relay, now: clock}
}

// CreateRoom seats the host in slot 0 of a fresh room.
func (m *RoomManager) CreateRoom(code domain.RoomCode, hostName string, conn domain.ConnID) (domain.RoomCode, error) {
	if err := domain.ValidateCode(code); err != nil {
		return "", err
	}
	host, err := domain.NewParticipant(hostName, conn)
	if err != nil {
		return "", err
	}
	if err := m.rooms.Create(domain.NewRoom(code, host, m.now())); err != nil {
		return "", err
	}
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("host", hostName).Msg("room created")
	return code, nil
}

// JoinRoom fills the first free slot. The capacity check and the seat happen
// under the same store lock, so two racing guests cannot both get in.
func (m *RoomManager) JoinRoom(code domain.RoomCode, guestName string, conn domain.ConnID) (JoinResult, error) {
	if err := domain.ValidateCode(code); err != nil {
		return JoinResult{}, err
	}
	guest, err := domain.NewParticipant(guestName, conn)
	if err != nil {
		return JoinResult{}, err
	}

	slot := domain.SlotNone
	snap, _, err := m.rooms.Update(code, func(r *domain.Room) error {
		free := r.FreeSlot()
		if free == domain.SlotNone {
			return fmt.Errorf("%w: %s", domain.ErrRoomFull, code)
		}
		r.Seat(free, guest, m.now())
		slot = free
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("player", guestName).Str("slot", slot.String()).Msg("player joined")

	res := JoinResult{Slot: slot, Room: snap}
	if len(snap.Players) == domain.RoomCapacity {
		res.Ready = true
		if m.relay != nil {
			res.Publish = m.relay.PlayersReady(snap)
		}
	}
	return res, nil
}

func (m *RoomManager) RoomExists(code domain.RoomCode) bool {
	_, err := m.rooms.Get(code)
	return err == nil
}

// Leave vacates slot. A non-empty conn must match the connection seated
// there, so a stale binding cannot evict someone who took the slot later.
func (m *RoomManager) Leave(code domain.RoomCode, slot domain.Slot, conn domain.ConnID) (LeaveResult, error) {
	if slot < 0 || int(slot) >= domain.RoomCapacity {
		return LeaveResult{}, fmt.Errorf("%w: bad slot %d", domain.ErrInvalidInput, slot)
	}
	return m.leave(code, func(r *domain.Room) (domain.Slot, error) {
		p := r.Slots[slot]
		if p == nil || (conn != "" && p.Conn != conn) {
			return domain.SlotNone, fmt.Errorf("%w: %s slot %s", domain.ErrNotSeated, code, slot)
		}
		return slot, nil
	})
}

// LeaveByName is the pull-transport leave, where identity is the display name.
func (m *RoomManager) LeaveByName(code domain.RoomCode, name string) (LeaveResult, error) {
	if err := domain.ValidateCode(code); err != nil {
		return LeaveResult{}, err
	}
	if name == "" {
		return LeaveResult{}, domain.ErrNameEmpty
	}
	return m.leave(code, func(r *domain.Room) (domain.Slot, error) {
		s := r.SlotOfName(name)
		if s == domain.SlotNone {
			return domain.SlotNone, fmt.Errorf("%w: %s is not in %s", domain.ErrNotSeated, name, code)
		}
		return s, nil
	})
}

func (m *RoomManager) leave(code domain.RoomCode, pick func(r *domain.Room) (domain.Slot, error)) (LeaveResult, error) {
	res := LeaveResult{Slot: domain.SlotNone}
	snap, deleted, err := m.rooms.Update(code, func(r *domain.Room) error {
		s, err := pick(r)
		if err != nil {
			return err
		}
		if p := r.Vacate(s, m.now()); p != nil {
			res.Conn = p.Conn
		}
		res.Slot = s
		return nil
	})
	if err != nil {
		return LeaveResult{}, err
	}
	res.Room = snap
	res.Deleted = deleted

	if deleted {
		log.Info().Str("module", "app.rooms").Str("room", string(code)).Msg("last player left, room deleted")
		return res, nil
	}
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("slot", res.Slot.String()).Msg("player left")
	if m.relay != nil {
		res.Publish = m.relay.OpponentLeft(snap)
	}
	return res, nil
}

// List returns a summary per room, ordered by code.
func (m *RoomManager) List() []domain.Summary {
	out := make([]domain.Summary, 0, m.rooms.Len())
	m.rooms.Range(func(s domain.Snapshot) bool {
		out = append(out, domain.Summary{Code: s.Code, PlayerCount: len(s.Players), Status: s.Status})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (m *RoomManager) Count() int { return m.rooms.Len() }
