package signal

import (
	"encoding/json"

	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/rs/zerolog/log"
)

type seatPayload struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Name string `json:"name"`
}

type seatReply struct {
	Type    string            `json:"type"`
	Room    domain.RoomCode   `json:"room"`
	Slot    domain.Slot       `json:"slot"`
	Players []domain.SeatView `json:"players,omitempty"`
}

func (ctl *SignalWSController) handleCreate(id domain.ConnID, conn *WsSignalConn, data []byte) {
	var p seatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad create payload")
		ctl.sendError(conn, domain.ErrInvalidInput)
		return
	}
	code := domain.RoomCode(p.Room)
	if err := ctl.Orch.CreateRoom(code, p.Name, id); err != nil {
		ctl.sendError(conn, err)
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("room", p.Room).Msg("create")
	ctl.sendJSON(conn, seatReply{Type: "room_created", Room: code, Slot: domain.SlotHost})
}

// handleJoin seats the connection. When this fills the room both sides get
// playersReady, which may arrive before the room_joined reply.
func (ctl *SignalWSController) handleJoin(id domain.ConnID, conn *WsSignalConn, data []byte) {
	var p seatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, domain.ErrInvalidInput)
		return
	}
	code := domain.RoomCode(p.Room)
	res, err := ctl.Orch.JoinRoom(code, p.Name, id)
	if err != nil {
		ctl.sendError(conn, err)
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("room", p.Room).Str("slot", res.Slot.String()).Msg("join")
	ctl.sendJSON(conn, seatReply{Type: "room_joined", Room: code, Slot: res.Slot, Players: res.Room.Players})
}

// handleLeave frees the seat; the connection itself stays open.
func (ctl *SignalWSController) handleLeave(id domain.ConnID, conn *WsSignalConn) {
	res, err := ctl.Orch.Leave(id)
	if err != nil {
		ctl.sendError(conn, err)
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("room", string(res.Room.Code)).Msg("leave")
	ctl.sendJSON(conn, struct {
		Type    string `json:"type"`
		Deleted bool   `json:"deleted"`
	}{Type: "left", Deleted: res.Deleted})
}
