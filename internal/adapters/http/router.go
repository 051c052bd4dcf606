package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/avdeyev/linkup/internal/adapters/signal"
	"github.com/avdeyev/linkup/internal/app"
	"github.com/avdeyev/linkup/internal/auth"
	"github.com/avdeyev/linkup/internal/config"
	"github.com/avdeyev/linkup/internal/domain"
)

// SetupRouter wires the WS endpoint and the read-only REST surface.
// - GET /ws?token=...      WebSocket handshake (bearer token in query)
// - GET /api/presence      online users snapshot
// - GET /api/calls         active call snapshot (no SDP)
func SetupRouter(cfg *config.Config, orch *app.Orchestrator, verifier auth.Verifier) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	ctl := signal.NewController(orch, verifier, cfg)
	r.GET("/ws", ctl.HandleWS)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.GET("/presence", func(c *gin.Context) {
		users := orch.Registry.OnlineUsers()
		c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
	})

	api.GET("/presence/:id", func(c *gin.Context) {
		uid := domain.UserID(c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"userId": uid, "online": orch.Registry.IsOnline(uid)})
	})

	api.GET("/calls", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"calls": orch.Calls.Snapshot()})
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
