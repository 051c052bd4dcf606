package app

import (
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/avdeyev/linkup/internal/domain"
)

func testOffer() webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 offer"}
}

func testAnswer() webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 answer"}
}

func testCandidate() webrtc.ICECandidateInit {
	mid := "0"
	return webrtc.ICECandidateInit{
		Candidate: "candidate:1 1 UDP 2122252543 10.0.0.1 53165 typ host",
		SDPMid:    &mid,
	}
}

func TestCallTableLifecycle(t *testing.T) {
	req := require.New(t)
	tbl := NewCallTable()

	req.True(tbl.Create("c1", "u1", "u2", testOffer()))
	s, ok := tbl.Get("c1")
	req.True(ok)
	req.Equal(domain.CallRinging, s.Status)
	req.Equal(domain.UserID("u1"), s.Caller)
	req.Equal(domain.UserID("u2"), s.Receiver)
	req.Nil(s.Answer)

	s, ok = tbl.Answer("c1", testAnswer())
	req.True(ok)
	req.Equal(domain.CallActive, s.Status)
	req.NotNil(s.Answer)

	s, ok = tbl.Remove("c1")
	req.True(ok)
	req.Equal(domain.CallID("c1"), s.ID)

	// Teardown is idempotent.
	_, ok = tbl.Remove("c1")
	req.False(ok)
	req.Zero(tbl.Len())
}

func TestCallTableDuplicateID(t *testing.T) {
	req := require.New(t)
	tbl := NewCallTable()

	req.True(tbl.Create("c1", "u1", "u2", testOffer()))
	req.False(tbl.Create("c1", "u3", "u4", testOffer()))

	// The live session is never clobbered.
	s, ok := tbl.Get("c1")
	req.True(ok)
	req.Equal(domain.UserID("u1"), s.Caller)
	req.Equal(domain.UserID("u2"), s.Receiver)
}

func TestCallTableUnknownID(t *testing.T) {
	req := require.New(t)
	tbl := NewCallTable()

	_, ok := tbl.Answer("nope", testAnswer())
	req.False(ok)
	_, ok = tbl.Get("nope")
	req.False(ok)
	_, ok = tbl.Remove("nope")
	req.False(ok)
}

func TestCallTableRemoveByParticipant(t *testing.T) {
	req := require.New(t)
	tbl := NewCallTable()

	tbl.Create("c1", "u1", "u2", testOffer())
	tbl.Create("c2", "u3", "u1", testOffer())
	tbl.Create("c3", "u3", "u4", testOffer())

	removed := tbl.RemoveByParticipant("u1")
	req.Len(removed, 2)
	for _, s := range removed {
		req.True(s.HasParticipant("u1"))
		req.NotEmpty(s.Peer("u1"))
	}
	req.Equal(1, tbl.Len())
	_, ok := tbl.Get("c3")
	req.True(ok)

	req.Empty(tbl.RemoveByParticipant("u1"))
}

func TestCallTableSnapshotHidesSDP(t *testing.T) {
	req := require.New(t)
	tbl := NewCallTable()

	tbl.Create("c1", "u1", "u2", testOffer())
	snap := tbl.Snapshot()
	req.Len(snap, 1)
	req.Equal(domain.CallID("c1"), snap[0].CallID)
	req.Equal(domain.CallRinging, snap[0].Status)
}
