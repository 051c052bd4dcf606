package app

import (
	"encoding/json"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/avdeyev/linkup/internal/core"
	"github.com/avdeyev/linkup/internal/domain"
)

// Orchestrator coordinates presence, message delivery and call
// signaling over the registry and call table. It never persists
// anything and never blocks: all sends go through TrySend, a full
// buffer drops the frame for that connection only.
type Orchestrator struct {
	Registry *Registry
	Calls    *CallTable
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		Registry: NewRegistry(),
		Calls:    NewCallTable(),
	}
}

// Connect admits an authenticated connection. Only the offline->online
// edge is announced; a second device joins silently.
func (o *Orchestrator) Connect(conn core.Connection) {
	if o.Registry.Register(conn) {
		o.broadcast(core.PresenceEvent{Type: core.EvUserOnline, UserID: conn.UserID()})
	}
}

// Disconnect reconciles state after a connection loss: presence first,
// then teardown of every call the user took part in. The counterpart
// of each torn-down call gets call:ended; a missing counterpart is a
// no-op, so the scan always completes.
func (o *Orchestrator) Disconnect(uid domain.UserID, id core.ConnID) {
	if o.Registry.Unregister(uid, id) {
		o.broadcast(core.PresenceEvent{Type: core.EvUserOffline, UserID: uid})
	}
	for _, s := range o.Calls.RemoveByParticipant(uid) {
		o.emitToUser(s.Peer(uid), core.CallEndedEvent{Type: core.EvCallEnded, CallID: s.ID})
	}
}

// Typing relays an ephemeral typing signal. Send-and-forget: nothing
// is queued for offline receivers.
func (o *Orchestrator) Typing(sender, receiver domain.UserID, start bool) {
	ev := core.TypingEvent{Type: core.EvTypingStop, UserID: sender}
	if start {
		ev.Type = core.EvTypingStart
	}
	o.emitToUser(receiver, ev)
}

// DeliverMessage bridges an already-persisted message to real-time
// delivery. The delivery receipt goes back to the originating
// connection only, and only when the receiver is online; an offline
// receiver produces no event at all (history fetch covers it later).
func (o *Orchestrator) DeliverMessage(origin core.Connection, receiver domain.UserID, msg domain.Message) {
	if !o.Registry.IsOnline(receiver) {
		log.Debug().Str("module", "app.orchestrator").Str("receiver", string(receiver)).Str("message", string(msg.ID)).Msg("receiver offline, delivery skipped")
		return
	}
	o.emitToUser(receiver, core.MessageReceiveEvent{Type: core.EvMessageReceive, Message: msg})
	o.emitTo(origin, core.MessageDeliveredEvent{
		Type:        core.EvMessageDelivered,
		MessageID:   msg.ID,
		DeliveredAt: time.Now().UTC(),
	})
}

// RelayReadReceipts forwards a read receipt to the original sender's
// room. Persisting read state is the caller's concern, not ours.
func (o *Orchestrator) RelayReadReceipts(reader, sender domain.UserID, ids []domain.MessageID) {
	o.emitToUser(sender, core.MessageReadEvent{
		Type:       core.EvMessageRead,
		MessageIDs: ids,
		ReadBy:     reader,
		ReadAt:     time.Now().UTC(),
	})
}

// InitiateCall creates a ringing session and rings the receiver. A
// callId already in use is ignored without touching the live session.
func (o *Orchestrator) InitiateCall(caller, receiver domain.UserID, id domain.CallID, offer webrtc.SessionDescription) {
	if !o.Calls.Create(id, caller, receiver, offer) {
		log.Warn().Str("module", "app.orchestrator").Str("call", string(id)).Msg("duplicate call id ignored")
		return
	}
	o.emitToUser(receiver, core.CallIncomingEvent{
		Type:   core.EvCallIncoming,
		CallID: id,
		Caller: caller,
		Offer:  offer,
	})
}

// AnswerCall moves the session to active and relays the answer to the
// caller. Unknown ids are silently ignored: teardown races are
// expected and harmless when idempotent.
func (o *Orchestrator) AnswerCall(id domain.CallID, answer webrtc.SessionDescription) {
	s, ok := o.Calls.Answer(id, answer)
	if !ok {
		return
	}
	o.emitToUser(s.Caller, core.CallAnsweredEvent{Type: core.EvCallAnswered, CallID: id, Answer: answer})
}

func (o *Orchestrator) RejectCall(id domain.CallID) {
	s, ok := o.Calls.Remove(id)
	if !ok {
		return
	}
	o.emitToUser(s.Caller, core.CallRejectedEvent{Type: core.EvCallRejected, CallID: id})
}

// EndCall tears the session down and tells both parties. A second end
// for the same id is a no-op.
func (o *Orchestrator) EndCall(id domain.CallID) {
	s, ok := o.Calls.Remove(id)
	if !ok {
		return
	}
	ev := core.CallEndedEvent{Type: core.EvCallEnded, CallID: id}
	o.emitToUser(s.Caller, ev)
	o.emitToUser(s.Receiver, ev)
}

// RelayCandidate forwards an ICE candidate to target. The target must
// be a participant of the call; candidates for unknown calls or
// addressed outside the pair are dropped.
func (o *Orchestrator) RelayCandidate(id domain.CallID, target domain.UserID, candidate webrtc.ICECandidateInit) {
	s, ok := o.Calls.Get(id)
	if !ok {
		return
	}
	if !s.HasParticipant(target) {
		log.Warn().Str("module", "app.orchestrator").Str("call", string(id)).Str("target", string(target)).Msg("ice candidate addressed outside call, dropped")
		return
	}
	o.emitToUser(target, core.CallCandidateEvent{Type: core.EvCallCandidate, CallID: id, Candidate: candidate})
}

func (o *Orchestrator) emitTo(conn core.Connection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Msg("event marshal")
		return
	}
	if err := conn.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "app.orchestrator").Str("conn", string(conn.ID())).Msg("frame dropped")
	}
}

// emitToUser fans a single encoded frame out to every connection in
// the user's room. No connections means no-op, never an error.
func (o *Orchestrator) emitToUser(uid domain.UserID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Msg("event marshal")
		return
	}
	for _, conn := range o.Registry.ConnectionsOf(uid) {
		if err := conn.TrySend(b); err != nil {
			log.Debug().Err(err).Str("module", "app.orchestrator").Str("conn", string(conn.ID())).Msg("frame dropped")
		}
	}
}

func (o *Orchestrator) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Msg("event marshal")
		return
	}
	for _, conn := range o.Registry.AllConnections() {
		if err := conn.TrySend(b); err != nil {
			log.Debug().Err(err).Str("module", "app.orchestrator").Str("conn", string(conn.ID())).Msg("frame dropped")
		}
	}
}
