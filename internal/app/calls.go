package app

import (
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/avdeyev/linkup/internal/domain"
)

// CallTable owns every pending and active call session. Sessions are
// never persisted; the table dies with the process.
type CallTable struct {
	mu       sync.RWMutex
	sessions map[domain.CallID]*domain.CallSession
}

func NewCallTable() *CallTable {
	return &CallTable{sessions: make(map[domain.CallID]*domain.CallSession)}
}

// CallInfo is a read-only view for APIs (no SDP blobs).
type CallInfo struct {
	CallID   domain.CallID     `json:"callId"`
	Caller   domain.UserID     `json:"caller"`
	Receiver domain.UserID     `json:"receiver"`
	Status   domain.CallStatus `json:"status"`
}

// Create tracks a new ringing session. Returns false if callID is
// already taken; the existing session is never clobbered.
func (t *CallTable) Create(id domain.CallID, caller, receiver domain.UserID, offer webrtc.SessionDescription) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sessions[id]; ok {
		return false
	}
	t.sessions[id] = &domain.CallSession{
		ID:       id,
		Caller:   caller,
		Receiver: receiver,
		Offer:    offer,
		Status:   domain.CallRinging,
	}
	log.Info().Str("module", "app.calls").Str("call", string(id)).Str("caller", string(caller)).Str("receiver", string(receiver)).Msg("call created")
	return true
}

// Answer stores the answer and flips the session to active. The second
// return is false when the call is unknown (already torn down).
func (t *CallTable) Answer(id domain.CallID, answer webrtc.SessionDescription) (domain.CallSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		return domain.CallSession{}, false
	}
	s.Answer = &answer
	s.Status = domain.CallActive
	log.Info().Str("module", "app.calls").Str("call", string(id)).Msg("call answered")
	return *s, true
}

// Get returns a copy of the session so callers never hold a pointer
// into the table.
func (t *CallTable) Get(id domain.CallID) (domain.CallSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	if !ok {
		return domain.CallSession{}, false
	}
	return *s, true
}

// Remove deletes the session and returns its final state. A repeat
// Remove for the same id is a no-op returning false.
func (t *CallTable) Remove(id domain.CallID) (domain.CallSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		return domain.CallSession{}, false
	}
	delete(t.sessions, id)
	log.Info().Str("module", "app.calls").Str("call", string(id)).Msg("call removed")
	return *s, true
}

// RemoveByParticipant deletes every session uid takes part in and
// returns the removed sessions (disconnect teardown).
func (t *CallTable) RemoveByParticipant(uid domain.UserID) []domain.CallSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []domain.CallSession
	for id, s := range t.sessions {
		if s.HasParticipant(uid) {
			out = append(out, *s)
			delete(t.sessions, id)
		}
	}
	if len(out) > 0 {
		log.Info().Str("module", "app.calls").Str("user", string(uid)).Int("calls", len(out)).Msg("calls torn down for participant")
	}
	return out
}

func (t *CallTable) Snapshot() []CallInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lo.MapToSlice(t.sessions, func(id domain.CallID, s *domain.CallSession) CallInfo {
		return CallInfo{CallID: id, Caller: s.Caller, Receiver: s.Receiver, Status: s.Status}
	})
}

func (t *CallTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
