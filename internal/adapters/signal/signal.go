package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/BaghChal/internal/app/orch"
	"github.com/dkeye/BaghChal/internal/core"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	// MoveRate is the number of moves a connection may send per second.
	// Zero disables the limit.
	MoveRate int
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	opts    Options
	limiter *ConnRateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	ctl := &SignalWSController{Orch: o, opts: opts}
	if opts.MoveRate > 0 {
		ctl.limiter = NewConnRateLimiter(opts.MoveRate, time.Second)
	}
	return ctl
}

// WsSignalConn is the core.SignalConnection for one WebSocket.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

var _ core.SignalConnection = (*WsSignalConn)(nil)

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	id := domain.ConnID(uuid.NewString())

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.opts.ReadLimit > 0 {
		ws.SetReadLimit(ctl.opts.ReadLimit)
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("client", c.GetString("client_token")).Msg("new WS connection")

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, sendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Connect(id, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, id, conn)
}
