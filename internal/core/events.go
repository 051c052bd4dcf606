package core

import (
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/avdeyev/linkup/internal/domain"
)

// Event names on the wire. Inbound and outbound frames share one flat
// envelope: {"type": "<name>", ...fields}.
const (
	EvUserOnline  = "user:online"
	EvUserOffline = "user:offline"

	EvTypingStart = "typing:start"
	EvTypingStop  = "typing:stop"

	EvMessageSend      = "message:send"
	EvMessageReceive   = "message:receive"
	EvMessageDelivered = "message:delivered"
	EvMessageRead      = "message:read"

	EvCallInitiate  = "call:initiate"
	EvCallIncoming  = "call:incoming"
	EvCallAnswer    = "call:answer"
	EvCallAnswered  = "call:answered"
	EvCallReject    = "call:reject"
	EvCallRejected  = "call:rejected"
	EvCallEnd       = "call:end"
	EvCallEnded     = "call:ended"
	EvCallCandidate = "call:ice-candidate"
)

// PresenceEvent announces an online/offline edge to every connection.
type PresenceEvent struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
}

// TypingEvent carries the sender id to the receiver's room.
type TypingEvent struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
}

type MessageReceiveEvent struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

type MessageDeliveredEvent struct {
	Type        string           `json:"type"`
	MessageID   domain.MessageID `json:"messageId"`
	DeliveredAt time.Time        `json:"deliveredAt"`
}

type MessageReadEvent struct {
	Type       string             `json:"type"`
	MessageIDs []domain.MessageID `json:"messageIds"`
	ReadBy     domain.UserID      `json:"readBy"`
	ReadAt     time.Time          `json:"readAt"`
}

type CallIncomingEvent struct {
	Type   string                    `json:"type"`
	CallID domain.CallID             `json:"callId"`
	Caller domain.UserID             `json:"caller"`
	Offer  webrtc.SessionDescription `json:"offer"`
}

type CallAnsweredEvent struct {
	Type   string                    `json:"type"`
	CallID domain.CallID             `json:"callId"`
	Answer webrtc.SessionDescription `json:"answer"`
}

type CallRejectedEvent struct {
	Type   string        `json:"type"`
	CallID domain.CallID `json:"callId"`
}

type CallEndedEvent struct {
	Type   string        `json:"type"`
	CallID domain.CallID `json:"callId"`
}

type CallCandidateEvent struct {
	Type      string                  `json:"type"`
	CallID    domain.CallID           `json:"callId"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}
