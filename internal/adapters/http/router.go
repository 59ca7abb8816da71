package http

import (
	"context"
	"net/http"

	"github.com/dkeye/BaghChal/internal/adapters/signal"
	"github.com/dkeye/BaghChal/internal/app/orch"
	"github.com/dkeye/BaghChal/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

const sessionName = "BaghChalSessions"

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	h := &Handlers{Orch: o}

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.POST("/create-room", h.CreateRoom)
	r.GET("/room-exists/:roomCode", h.RoomExists)
	r.POST("/join-room", h.JoinRoom)
	r.GET("/game-state/:roomCode", h.GameState)
	r.POST("/make-move", h.MakeMove)
	r.POST("/leave-room", h.LeaveRoom)
	r.GET("/rooms", h.ListRooms)
	r.GET("/metrics", gin.WrapH(o.Metrics.Handler()))

	ws := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		MoveRate:   cfg.MoveRate,
	})
	r.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws endpoint hit")
		ws.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}

// WithCORS wraps the engine so browser clients on other origins can call it.
func WithCORS(cfg *config.Config, h http.Handler) http.Handler {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(h)
}
