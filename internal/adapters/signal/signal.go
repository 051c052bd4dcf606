// Package signal is the WebSocket adapter: it authenticates the
// upgrade handshake, owns the transport pumps and translates wire
// frames into orchestrator calls.
package signal

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avdeyev/linkup/internal/app"
	"github.com/avdeyev/linkup/internal/auth"
	"github.com/avdeyev/linkup/internal/config"
	"github.com/avdeyev/linkup/internal/core"
	"github.com/avdeyev/linkup/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Orch     *app.Orchestrator
	Verifier auth.Verifier
	Cfg      *config.Config
	upgrader websocket.Upgrader
}

func NewController(orch *app.Orchestrator, verifier auth.Verifier, cfg *config.Config) *Controller {
	return &Controller{
		Orch:     orch,
		Verifier: verifier,
		Cfg:      cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(cfg.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

// wsConn is a transport endpoint. It implements core.Connection.
type wsConn struct {
	id     core.ConnID
	userID domain.UserID
	conn   *websocket.Conn
	send   chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWSConn(uid domain.UserID, ws *websocket.Conn, buffer int) *wsConn {
	return &wsConn{
		id:     core.ConnID(uuid.NewString()),
		userID: uid,
		conn:   ws,
		send:   make(chan core.Frame, buffer),
	}
}

func (c *wsConn) ID() core.ConnID       { return c.id }
func (c *wsConn) UserID() domain.UserID { return c.userID }

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
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

// HandleWS verifies the bearer credential carried in the token query
// field, then upgrades. Verification happens exactly once per attempt
// and before any state exists: a rejected handshake leaves nothing
// behind and emits nothing.
func (ctl *Controller) HandleWS(c *gin.Context) {
	uid, err := ctl.Verifier.Verify(c.Query("token"))
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("handshake rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWSConn(uid, ws, ctl.Cfg.SendBuffer)
	log.Info().Str("module", "signal").Str("user", string(uid)).Str("conn", string(conn.id)).Msg("new WS connection")

	ctl.Orch.Connect(conn)

	go ctl.writePump(conn)
	go ctl.readPump(conn)
}
