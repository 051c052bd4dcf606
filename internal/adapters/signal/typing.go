package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avdeyev/linkup/internal/domain"
)

func (ctl *Controller) handleTyping(c *wsConn, data []byte, start bool) {
	var p struct {
		Type       string        `json:"type"`
		ReceiverID domain.UserID `json:"receiverId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad typing payload")
		return
	}
	if p.ReceiverID == "" {
		return
	}
	ctl.Orch.Typing(c.userID, p.ReceiverID, start)
}
