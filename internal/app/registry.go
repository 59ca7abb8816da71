package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dkeye/BaghChal/internal/core"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Code   domain.RoomCode
	Slot   domain.Slot
	Signal core.SignalConnection
	Cancel context.CancelFunc
}

func (e *sessionEntry) seated() bool { return e.Code != "" }

// Registry tracks live push connections and the (room, slot) each one holds.
// It is also the core.Notifier used by the Relay.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ConnID]*sessionEntry
}

var _ core.Notifier = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.ConnID]*sessionEntry)}
}

// Attach registers a connection's transport endpoint.
func (r *Registry) Attach(conn domain.ConnID, sig core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[conn] = &sessionEntry{Slot: domain.SlotNone, Signal: sig, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Msg("attached")
}

func (r *Registry) Detach(conn domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, conn)
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Msg("detached")
}

// Bind records that conn holds slot in room code.
func (r *Registry) Bind(conn domain.ConnID, code domain.RoomCode, slot domain.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[conn]
	if !ok {
		e = &sessionEntry{Slot: domain.SlotNone}
		r.sessions[conn] = e
	}
	if e.seated() {
		return fmt.Errorf("%w: %s", domain.ErrAlreadySeated, e.Code)
	}
	e.Code = code
	e.Slot = slot
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("room", string(code)).Str("slot", slot.String()).Msg("bound")
	return nil
}

func (r *Registry) Binding(conn domain.ConnID) (domain.RoomCode, domain.Slot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[conn]
	if !ok || !e.seated() {
		return "", domain.SlotNone, false
	}
	return e.Code, e.Slot, true
}

func (r *Registry) Seated(conn domain.ConnID) bool {
	_, _, ok := r.Binding(conn)
	return ok
}

// Unbind clears and returns conn's seat. Only one caller can take a given
// binding, so a leave message racing a disconnect evicts the slot once.
func (r *Registry) Unbind(conn domain.ConnID) (domain.RoomCode, domain.Slot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[conn]
	if !ok || !e.seated() {
		return "", domain.SlotNone, false
	}
	code, slot := e.Code, e.Slot
	e.Code, e.Slot = "", domain.SlotNone
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("room", string(code)).Msg("unbound")
	return code, slot, true
}

// UnbindIf clears conn's seat only while it still points at (code, slot).
func (r *Registry) UnbindIf(conn domain.ConnID, code domain.RoomCode, slot domain.Slot) bool {
	if conn == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[conn]
	if !ok || e.Code != code || e.Slot != slot {
		return false
	}
	e.Code, e.Slot = "", domain.SlotNone
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("room", string(code)).Msg("unbound")
	return true
}

// Cancel stops the connection's pumps; the adapter's read loop then reports
// the disconnect.
func (r *Registry) Cancel(conn domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.sessions[conn]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Msg("canceled session")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Deliver(conn domain.ConnID, ev core.Event) error {
	r.mu.RLock()
	e, ok := r.sessions[conn]
	r.mu.RUnlock()
	if !ok || e.Signal == nil {
		return fmt.Errorf("%w: %s", core.ErrConnClosed, conn)
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Type, err)
	}
	return e.Signal.TrySend(b)
}
