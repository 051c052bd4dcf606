package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avdeyev/linkup/internal/domain"
)

// handleMessageSend forwards an already-persisted message record to
// the receiver's room. Durability is the store's concern; by the time
// this frame arrives the record is assumed written.
func (ctl *Controller) handleMessageSend(c *wsConn, data []byte) {
	var p struct {
		Type       string         `json:"type"`
		ReceiverID domain.UserID  `json:"receiverId"`
		Message    domain.Message `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad message:send payload")
		return
	}
	if p.ReceiverID == "" || p.Message.ID == "" {
		return
	}
	ctl.Orch.DeliverMessage(c, p.ReceiverID, p.Message)
}

// handleMessageRead relays a read receipt to the original sender. The
// reader is the connection's verified user, never a payload field.
func (ctl *Controller) handleMessageRead(c *wsConn, data []byte) {
	var p struct {
		Type       string             `json:"type"`
		MessageIDs []domain.MessageID `json:"messageIds"`
		SenderID   domain.UserID      `json:"senderId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad message:read payload")
		return
	}
	if p.SenderID == "" || len(p.MessageIDs) == 0 {
		return
	}
	ctl.Orch.RelayReadReceipts(c.userID, p.SenderID, p.MessageIDs)
}
