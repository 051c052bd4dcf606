package domain

import "github.com/pion/webrtc/v4"

type CallID string

type CallStatus string

const (
	CallRinging CallStatus = "ringing"
	CallActive  CallStatus = "active"
)

// CallSession tracks one signaling exchange between exactly two users.
// Caller and receiver never change after creation; the session lives
// only in memory and dies with the process.
type CallSession struct {
	ID       CallID
	Caller   UserID
	Receiver UserID
	Offer    webrtc.SessionDescription
	Answer   *webrtc.SessionDescription
	Status   CallStatus
}

// Peer returns the other participant, or "" if uid is not part of the call.
func (s *CallSession) Peer(uid UserID) UserID {
	switch uid {
	case s.Caller:
		return s.Receiver
	case s.Receiver:
		return s.Caller
	}
	return ""
}

// HasParticipant reports whether uid is the caller or the receiver.
func (s *CallSession) HasParticipant(uid UserID) bool {
	return uid == s.Caller || uid == s.Receiver
}
