package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/rs/zerolog/log"
)

var errRateLimited = errors.New("too many moves")

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleMove(id domain.ConnID, conn *WsSignalConn, data []byte) {
	if !ctl.limiter.Allow(id) {
		log.Warn().Str("module", "signal").Str("conn", string(id)).Msg("move rate limited")
		ctl.sendJSON(conn, errorMsg{Type: "error", Kind: "RateLimited", Error: errRateLimited.Error()})
		return
	}
	var p struct {
		Type  string          `json:"type"`
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad move payload")
		ctl.sendError(conn, domain.ErrInvalidInput)
		return
	}
	code, err := ctl.Orch.UpdateState("", p.State, id)
	if err != nil {
		ctl.sendError(conn, err)
		return
	}
	// ack only; the state itself goes to the opponent
	ctl.sendJSON(conn, struct {
		Type string          `json:"type"`
		Room domain.RoomCode `json:"room"`
	}{Type: "moved", Room: code})
}

func (ctl *SignalWSController) handleState(id domain.ConnID, conn *WsSignalConn) {
	code, _, ok := ctl.Orch.Registry.Binding(id)
	if !ok {
		ctl.sendError(conn, domain.ErrNotSeated)
		return
	}
	snap, err := ctl.Orch.GetState(code)
	if err != nil {
		ctl.sendError(conn, err)
		return
	}
	ctl.sendJSON(conn, struct {
		Type      string            `json:"type"`
		Room      domain.RoomCode   `json:"room"`
		GameState json.RawMessage   `json:"gameState"`
		Slots     []domain.SeatView `json:"slots"`
		Status    domain.RoomStatus `json:"status"`
	}{
		Type:      "state",
		Room:      snap.Code,
		GameState: snap.GameState,
		Slots:     snap.Players,
		Status:    snap.Status,
	})
}
