package app

import (
	"fmt"

	"github.com/dkeye/BaghChal/internal/domain"
)

type BackpressureAction int

const (
	KickConn BackpressureAction = iota
	DropFrame
)

// Policy decides what happens to a push connection whose outbound queue is
// full when an event is fanned out to it.
type Policy interface {
	OnBackPressure(code domain.RoomCode, conn domain.ConnID) BackpressureAction
}

// SimplePolicy disconnects slow clients. The disconnect then frees the slot
// like any other drop.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomCode, domain.ConnID) BackpressureAction {
	return KickConn
}

// DropPolicy keeps slow clients seated and discards the event. They can catch
// up with a state request.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.RoomCode, domain.ConnID) BackpressureAction {
	return DropFrame
}

// PolicyByName maps the backpressure config value to a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "kick":
		return SimplePolicy{}, nil
	case "drop":
		return DropPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
