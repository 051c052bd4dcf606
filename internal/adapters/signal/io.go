package signal

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avdeyev/linkup/internal/core"
)

func (ctl *Controller) writePump(c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump owns the connection lifetime: when the read side dies for
// any reason the disconnect reconciler runs and transport resources
// are released.
func (ctl *Controller) readPump(c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("user", string(c.userID)).Str("conn", string(c.id)).Msg("readPump closing")
		ctl.Orch.Disconnect(c.userID, c.id)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	pongWait := ctl.Cfg.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
			}
			return
		}
		ctl.handleFrame(c, data)
	}
}

// handleFrame dispatches one inbound frame by its type field. Events
// from a single connection are handled in order; malformed or unknown
// frames are logged and dropped, never answered with an error event.
func (ctl *Controller) handleFrame(c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case core.EvTypingStart:
		ctl.handleTyping(c, data, true)
	case core.EvTypingStop:
		ctl.handleTyping(c, data, false)
	case core.EvMessageSend:
		ctl.handleMessageSend(c, data)
	case core.EvMessageRead:
		ctl.handleMessageRead(c, data)
	case core.EvCallInitiate:
		ctl.handleCallInitiate(c, data)
	case core.EvCallAnswer:
		ctl.handleCallAnswer(c, data)
	case core.EvCallReject:
		ctl.handleCallReject(c, data)
	case core.EvCallEnd:
		ctl.handleCallEnd(c, data)
	case core.EvCallCandidate:
		ctl.handleCallCandidate(c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}
