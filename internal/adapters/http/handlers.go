package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dkeye/BaghChal/internal/app/orch"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const serverName = "Bagh Chal Game Server"

// session keys remembering the seat a pull client took
const (
	seatRoomKey = "room"
	seatNameKey = "name"
)

type Handlers struct {
	Orch *orch.Orchestrator
}

type seatRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type moveRequest struct {
	RoomCode  string          `json:"roomCode"`
	GameState json.RawMessage `json:"gameState"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindRoomNotFound, domain.KindNotSeated:
		return http.StatusNotFound
	case domain.KindRoomExists, domain.KindRoomFull, domain.KindAlreadySeated:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, op string, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("op", op).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("module", "adapters.http").Str("op", op).Msg("request rejected")
	}
	c.JSON(status, gin.H{"error": domain.PublicMessage(err), "kind": kind})
}

func bindSeat(c *gin.Context) (seatRequest, bool) {
	var req seatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, "bind", domain.ErrInvalidInput)
		return req, false
	}
	return req, true
}

func rememberSeat(c *gin.Context, code, name string) {
	s := sessions.Default(c)
	s.Set(seatRoomKey, code)
	s.Set(seatNameKey, name)
	if err := s.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
	}
}

func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "Server is running",
		"message":   serverName,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "server": serverName, "stats": h.Orch.Stats()})
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	req, ok := bindSeat(c)
	if !ok {
		return
	}
	code := domain.RoomCode(req.RoomCode)
	if err := h.Orch.CreateRoom(code, req.PlayerName, ""); err != nil {
		writeError(c, "create-room", err)
		return
	}
	rememberSeat(c, req.RoomCode, req.PlayerName)
	c.JSON(http.StatusOK, gin.H{"success": true, "roomCode": code})
}

func (h *Handlers) RoomExists(c *gin.Context) {
	code := domain.RoomCode(c.Param("roomCode"))
	c.JSON(http.StatusOK, gin.H{"exists": h.Orch.RoomExists(code), "roomCode": code})
}

func (h *Handlers) JoinRoom(c *gin.Context) {
	req, ok := bindSeat(c)
	if !ok {
		return
	}
	code := domain.RoomCode(req.RoomCode)
	res, err := h.Orch.JoinRoom(code, req.PlayerName, "")
	if err != nil {
		writeError(c, "join-room", err)
		return
	}
	rememberSeat(c, req.RoomCode, req.PlayerName)
	c.JSON(http.StatusOK, gin.H{"success": true, "roomCode": code, "slot": res.Slot})
}

func (h *Handlers) GameState(c *gin.Context) {
	snap, err := h.Orch.GetState(domain.RoomCode(c.Param("roomCode")))
	if err != nil {
		writeError(c, "game-state", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"gameState": snap.GameState,
		"players":   snap.Names(),
		"status":    snap.Status,
	})
}

func (h *Handlers) MakeMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, "make-move", domain.ErrInvalidInput)
		return
	}
	if _, err := h.Orch.UpdateState(domain.RoomCode(req.RoomCode), req.GameState, ""); err != nil {
		writeError(c, "make-move", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// LeaveRoom frees the seat named in the body, or the one this client's
// session recorded at create/join.
func (h *Handlers) LeaveRoom(c *gin.Context) {
	var req seatRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, "leave-room", domain.ErrInvalidInput)
			return
		}
	}
	s := sessions.Default(c)
	if req.RoomCode == "" {
		req.RoomCode, _ = s.Get(seatRoomKey).(string)
	}
	if req.PlayerName == "" {
		req.PlayerName, _ = s.Get(seatNameKey).(string)
	}

	res, err := h.Orch.LeaveByName(domain.RoomCode(req.RoomCode), req.PlayerName)
	if err != nil {
		writeError(c, "leave-room", err)
		return
	}
	s.Delete(seatRoomKey)
	s.Delete(seatNameKey)
	_ = s.Save()
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": res.Deleted})
}

func (h *Handlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.Orch.ListRooms()})
}
