package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/avdeyev/linkup/internal/domain"
)

// SDP and ICE payloads are opaque here: they are parsed only to be
// re-encoded for the peer, never inspected or fed to a PeerConnection.

func (ctl *Controller) handleCallInitiate(c *wsConn, data []byte) {
	var p struct {
		Type       string                    `json:"type"`
		ReceiverID domain.UserID             `json:"receiverId"`
		CallID     domain.CallID             `json:"callId"`
		Offer      webrtc.SessionDescription `json:"offer"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad call:initiate payload")
		return
	}
	if p.ReceiverID == "" || p.CallID == "" {
		return
	}
	ctl.Orch.InitiateCall(c.userID, p.ReceiverID, p.CallID, p.Offer)
}

func (ctl *Controller) handleCallAnswer(c *wsConn, data []byte) {
	var p struct {
		Type   string                    `json:"type"`
		CallID domain.CallID             `json:"callId"`
		Answer webrtc.SessionDescription `json:"answer"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad call:answer payload")
		return
	}
	ctl.Orch.AnswerCall(p.CallID, p.Answer)
}

func (ctl *Controller) handleCallReject(c *wsConn, data []byte) {
	var p struct {
		Type   string        `json:"type"`
		CallID domain.CallID `json:"callId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad call:reject payload")
		return
	}
	ctl.Orch.RejectCall(p.CallID)
}

func (ctl *Controller) handleCallEnd(c *wsConn, data []byte) {
	var p struct {
		Type   string        `json:"type"`
		CallID domain.CallID `json:"callId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad call:end payload")
		return
	}
	ctl.Orch.EndCall(p.CallID)
}

func (ctl *Controller) handleCallCandidate(c *wsConn, data []byte) {
	var p struct {
		Type         string                  `json:"type"`
		CallID       domain.CallID           `json:"callId"`
		Candidate    webrtc.ICECandidateInit `json:"candidate"`
		TargetUserID domain.UserID           `json:"targetUserId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad call:ice-candidate payload")
		return
	}
	ctl.Orch.RelayCandidate(p.CallID, p.TargetUserID, p.Candidate)
}
