package core

import (
	"time"

	"github.com/dkeye/BaghChal/internal/domain"
)

// RoomStore is the only owner of Room entities. Every method is atomic with
// respect to other calls on the same code; callers never hold a *domain.Room
// outside the callbacks below.
type RoomStore interface {
	// Create inserts room unless its code is taken (domain.ErrRoomExists).
	Create(room *domain.Room) error
	Get(code domain.RoomCode) (domain.Snapshot, error)
	// Update runs fn under the room's lock. If fn leaves the room empty the
	// room is deleted before the lock is released and deleted is true.
	Update(code domain.RoomCode, fn func(r *domain.Room) error) (after domain.Snapshot, deleted bool, err error)
	Delete(code domain.RoomCode) bool
	// DeleteIf removes the room only if pred still holds under the lock.
	DeleteIf(code domain.RoomCode, pred func(r *domain.Room) bool) (domain.Snapshot, bool)
	// Range calls fn with snapshots; no store lock is held while fn runs.
	Range(fn func(s domain.Snapshot) bool)
	Len() int
}

// Notifier pushes an event to one live connection.
type Notifier interface {
	Deliver(conn domain.ConnID, ev Event) error
}

// Clock is injected where tests need to move time.
type Clock func() time.Time
