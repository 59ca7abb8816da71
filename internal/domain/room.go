package domain

import (
	"encoding/json"
	"time"
)

type RoomCode string

// Slot is a participant position inside a room.
type Slot int

const (
	SlotNone  Slot = -1
	SlotHost  Slot = 0
	SlotGuest Slot = 1

	// RoomCapacity is the number of slots a room has.
	RoomCapacity = 2
)

func (s Slot) String() string {
	switch s {
	case SlotHost:
		return "host"
	case SlotGuest:
		return "guest"
	default:
		return "none"
	}
}

type RoomStatus string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusActive  RoomStatus = "active"
	StatusClosing RoomStatus = "closing"
)

// Room is the store-owned entity. Callers outside the store only ever see
// copies produced by Snapshot.
type Room struct {
	Code         RoomCode
	Slots        [RoomCapacity]*Participant
	GameState    json.RawMessage
	CreatedAt    time.Time
	LastActivity time.Time

	// hadGuest is set once the room has been full, so a room that drops back
	// to one occupant is reported as closing rather than waiting.
	hadGuest bool
}

func NewRoom(code RoomCode, host *Participant, now time.Time) *Room {
	r := &Room{
		Code:         code,
		CreatedAt:    now,
		LastActivity: now,
	}
	r.Slots[SlotHost] = host
	return r
}

func (r *Room) Occupied() int {
	n := 0
	for _, p := range r.Slots {
		if p != nil {
			n++
		}
	}
	return n
}

func (r *Room) Empty() bool { return r.Occupied() == 0 }

// FreeSlot returns the first unoccupied slot, or SlotNone when the room is full.
func (r *Room) FreeSlot() Slot {
	for i, p := range r.Slots {
		if p == nil {
			return Slot(i)
		}
	}
	return SlotNone
}

// Seat places p in slot s. The slot must be free.
func (r *Room) Seat(s Slot, p *Participant, now time.Time) {
	r.Slots[s] = p
	r.LastActivity = now
	if r.Occupied() == RoomCapacity {
		r.hadGuest = true
	}
}

// Vacate clears slot s and returns whoever sat there.
func (r *Room) Vacate(s Slot, now time.Time) *Participant {
	p := r.Slots[s]
	r.Slots[s] = nil
	r.LastActivity = now
	return p
}

// SlotOfName finds the slot held by a display name.
func (r *Room) SlotOfName(name string) Slot {
	for i, p := range r.Slots {
		if p != nil && p.Name == name {
			return Slot(i)
		}
	}
	return SlotNone
}

func (r *Room) Status() RoomStatus {
	switch {
	case r.Occupied() == RoomCapacity:
		return StatusActive
	case r.hadGuest:
		return StatusClosing
	default:
		return StatusWaiting
	}
}

func (r *Room) Touch(now time.Time) { r.LastActivity = now }

// Snapshot is a detached, read-only copy of a room.
type Snapshot struct {
	Code         RoomCode        `json:"roomCode"`
	Players      []SeatView      `json:"players"`
	GameState    json.RawMessage `json:"gameState"`
	Status       RoomStatus      `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	LastActivity time.Time       `json:"lastActivity"`

	conns [RoomCapacity]ConnID
}

func (r *Room) Snapshot() Snapshot {
	s := Snapshot{
		Code:         r.Code,
		Players:      r.Seats(),
		Status:       r.Status(),
		CreatedAt:    r.CreatedAt,
		LastActivity: r.LastActivity,
	}
	if r.GameState != nil {
		s.GameState = append(json.RawMessage(nil), r.GameState...)
	}
	for i, p := range r.Slots {
		if p != nil {
			s.conns[i] = p.Conn
		}
	}
	return s
}

// Seats lists occupied slots in slot order.
func (r *Room) Seats() []SeatView {
	out := make([]SeatView, 0, RoomCapacity)
	for i, p := range r.Slots {
		if p != nil {
			out = append(out, SeatView{Slot: Slot(i), Name: p.Name})
		}
	}
	return out
}

// Names returns the display names in slot order.
func (s Snapshot) Names() []string {
	out := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, p.Name)
	}
	return out
}

// Conn returns the push connection bound to slot, if any.
func (s Snapshot) Conn(slot Slot) ConnID {
	if slot < 0 || int(slot) >= RoomCapacity {
		return ""
	}
	return s.conns[slot]
}

// Summary is the listing view of a room.
type Summary struct {
	Code        RoomCode   `json:"roomCode"`
	PlayerCount int        `json:"playerCount"`
	Status      RoomStatus `json:"status"`
}
