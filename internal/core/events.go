package core

import (
	"encoding/json"

	"github.com/dkeye/BaghChal/internal/domain"
)

const (
	EventPlayersReady = "playersReady"
	EventOpponentMove = "opponentMove"
	EventOpponentLeft = "opponentLeft"
	EventRoomClosed   = "roomClosed"
)

// Event is an asynchronous notification for a push client.
type Event struct {
	Type string `json:"type"`

	Room      domain.RoomCode   `json:"room,omitempty"`
	Slots     []domain.SeatView `json:"slots,omitempty"`
	GameState json.RawMessage   `json:"gameState,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

func PlayersReady(code domain.RoomCode, slots []domain.SeatView) Event {
	return Event{Type: EventPlayersReady, Room: code, Slots: slots}
}

func OpponentMove(code domain.RoomCode, state json.RawMessage) Event {
	return Event{Type: EventOpponentMove, Room: code, GameState: state}
}

func OpponentLeft(code domain.RoomCode) Event {
	return Event{Type: EventOpponentLeft, Room: code}
}

func RoomClosed(code domain.RoomCode, reason string) Event {
	return Event{Type: EventRoomClosed, Room: code, Reason: reason}
}
