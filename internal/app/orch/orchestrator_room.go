package orch

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/BaghChal/internal/app"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/dkeye/BaghChal/internal/metrics"
)

// CreateRoom creates code with hostName in slot 0. conn is empty for pull
// clients; otherwise the connection is bound to the new seat.
func (o *Orchestrator) CreateRoom(code domain.RoomCode, hostName string, conn domain.ConnID) error {
	if conn != "" && o.Registry.Seated(conn) {
		return domain.ErrAlreadySeated
	}
	if _, err := o.Rooms.CreateRoom(code, hostName, conn); err != nil {
		return err
	}
	if conn != "" {
		if err := o.Registry.Bind(conn, code, domain.SlotHost); err != nil {
			_, _ = o.Rooms.Leave(code, domain.SlotHost, conn)
			return err
		}
	}
	o.Metrics.Event(metrics.EventCreated)
	o.Metrics.SetRooms(o.Rooms.Count())
	return nil
}

func (o *Orchestrator) RoomExists(code domain.RoomCode) bool {
	return o.Rooms.RoomExists(code)
}

func (o *Orchestrator) JoinRoom(code domain.RoomCode, guestName string, conn domain.ConnID) (app.JoinResult, error) {
	if conn != "" && o.Registry.Seated(conn) {
		return app.JoinResult{}, domain.ErrAlreadySeated
	}
	res, err := o.Rooms.JoinRoom(code, guestName, conn)
	if err != nil {
		return app.JoinResult{}, err
	}
	if conn != "" {
		if err := o.Registry.Bind(conn, code, res.Slot); err != nil {
			_, _ = o.Rooms.Leave(code, res.Slot, conn)
			return app.JoinResult{}, err
		}
	}
	o.Metrics.Event(metrics.EventJoined)
	o.applyPolicy(code, res.Publish)
	return res, nil
}

func (o *Orchestrator) GetState(code domain.RoomCode) (domain.Snapshot, error) {
	if err := domain.ValidateCode(code); err != nil {
		return domain.Snapshot{}, err
	}
	return o.Relay.GetState(code)
}

// UpdateState stores state for code. A push sender must be seated in that
// room and is excluded from the fan-out; code may be empty for it, in which
// case its bound room is used.
func (o *Orchestrator) UpdateState(code domain.RoomCode, state json.RawMessage, conn domain.ConnID) (domain.RoomCode, error) {
	sender := domain.SlotNone
	if conn != "" {
		bound, slot, ok := o.Registry.Binding(conn)
		if !ok {
			return "", domain.ErrNotSeated
		}
		if code == "" {
			code = bound
		}
		if code != bound {
			return "", fmt.Errorf("%w: %s", domain.ErrNotSeated, code)
		}
		sender = slot
	}
	res, err := o.Relay.UpdateState(code, state, sender)
	if err != nil {
		return "", err
	}
	o.Metrics.Event(metrics.EventMove)
	o.applyPolicy(code, res)
	return code, nil
}

// Leave frees the seat held by a push connection.
func (o *Orchestrator) Leave(conn domain.ConnID) (app.LeaveResult, error) {
	code, slot, ok := o.Registry.Unbind(conn)
	if !ok {
		return app.LeaveResult{}, domain.ErrNotSeated
	}
	res, err := o.Rooms.Leave(code, slot, conn)
	if err != nil {
		return app.LeaveResult{}, err
	}
	o.afterLeave(code, res)
	return res, nil
}

// LeaveByName frees the seat a pull client holds under name.
func (o *Orchestrator) LeaveByName(code domain.RoomCode, name string) (app.LeaveResult, error) {
	res, err := o.Rooms.LeaveByName(code, name)
	if err != nil {
		return app.LeaveResult{}, err
	}
	o.Registry.UnbindIf(res.Conn, code, res.Slot)
	o.afterLeave(code, res)
	return res, nil
}

func (o *Orchestrator) afterLeave(code domain.RoomCode, res app.LeaveResult) {
	o.Metrics.Event(metrics.EventLeft)
	if res.Deleted {
		o.Metrics.Event(metrics.EventDeleted)
		o.Metrics.SetRooms(o.Rooms.Count())
		return
	}
	o.applyPolicy(code, res.Publish)
}
