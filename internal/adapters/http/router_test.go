package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/avdeyev/linkup/internal/app"
	"github.com/avdeyev/linkup/internal/auth"
	"github.com/avdeyev/linkup/internal/config"
	"github.com/avdeyev/linkup/internal/domain"
)

const e2eSecret = "e2e-secret"

func setupServer(t *testing.T) (*httptest.Server, *app.Orchestrator) {
	t.Helper()
	cfg := &config.Config{
		Mode:         "release",
		ReadLimit:    32768,
		PingPeriod:   54 * time.Second,
		WriteTimeout: 5 * time.Second,
		SendBuffer:   64,
		Secret:       e2eSecret,
	}
	orch := app.NewOrchestrator()
	srv := httptest.NewServer(SetupRouter(cfg, orch, auth.NewTokenVerifier(cfg.Secret)))
	t.Cleanup(srv.Close)
	return srv, orch
}

func dialWS(t *testing.T, srv *httptest.Server, uid domain.UserID) *websocket.Conn {
	t.Helper()
	token, err := auth.Issue(e2eSecret, uid, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

// waitFor reads frames until one of the wanted type shows up, skipping
// unrelated traffic (presence broadcasts arrive interleaved).
func waitFor(t *testing.T, ws *websocket.Conn, typ string) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := ws.ReadMessage()
		require.NoError(t, err, "waiting for %s", typ)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		if m["type"] == typ {
			return m
		}
	}
}

func TestHandshakeRejectedBeforeUpgrade(t *testing.T) {
	req := require.New(t)
	srv, orch := setupServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=bogus"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	req.Error(err)
	req.Nil(ws)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// No partial registration.
	req.Empty(orch.Registry.OnlineUsers())
}

func TestMessageFlowEndToEnd(t *testing.T) {
	req := require.New(t)
	srv, orch := setupServer(t)

	wsA := dialWS(t, srv, "u1")
	wsB := dialWS(t, srv, "u2")
	req.Eventually(func() bool {
		return orch.Registry.IsOnline("u1") && orch.Registry.IsOnline("u2")
	}, 3*time.Second, 10*time.Millisecond)

	req.NoError(wsA.WriteJSON(map[string]any{
		"type":       "message:send",
		"receiverId": "u2",
		"message": map[string]any{
			"id":         "m1",
			"senderId":   "u1",
			"receiverId": "u2",
			"content":    "hello",
			"createdAt":  time.Now().UTC().Format(time.RFC3339),
		},
	}))

	received := waitFor(t, wsB, "message:receive")
	msg := received["message"].(map[string]any)
	req.Equal("m1", msg["id"])
	req.Equal("hello", msg["content"])

	delivered := waitFor(t, wsA, "message:delivered")
	req.Equal("m1", delivered["messageId"])
}

func TestPresenceBroadcastOnDisconnect(t *testing.T) {
	req := require.New(t)
	srv, orch := setupServer(t)

	wsA := dialWS(t, srv, "u1")
	online := waitFor(t, wsA, "user:online")
	req.Equal("u1", online["userId"])

	wsB := dialWS(t, srv, "u2")
	online = waitFor(t, wsA, "user:online")
	req.Equal("u2", online["userId"])

	req.NoError(wsB.Close())
	offline := waitFor(t, wsA, "user:offline")
	req.Equal("u2", offline["userId"])
	req.Eventually(func() bool { return !orch.Registry.IsOnline("u2") }, 3*time.Second, 10*time.Millisecond)
}

func TestRESTSnapshots(t *testing.T) {
	req := require.New(t)
	srv, orch := setupServer(t)

	dialWS(t, srv, "u1")
	req.Eventually(func() bool { return orch.Registry.IsOnline("u1") }, 3*time.Second, 10*time.Millisecond)

	resp, err := http.Get(srv.URL + "/api/presence")
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)
	var presence struct {
		Count int      `json:"count"`
		Users []string `json:"users"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&presence))
	resp.Body.Close()
	req.Equal(1, presence.Count)
	req.Equal([]string{"u1"}, presence.Users)

	resp, err = http.Get(srv.URL + "/api/presence/u1")
	req.NoError(err)
	var one struct {
		UserID string `json:"userId"`
		Online bool   `json:"online"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&one))
	resp.Body.Close()
	req.True(one.Online)

	resp, err = http.Get(srv.URL + "/healthz")
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/calls")
	req.NoError(err)
	var calls struct {
		Calls []app.CallInfo `json:"calls"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&calls))
	resp.Body.Close()
	req.Empty(calls.Calls)
}

func TestCallSignalingEndToEnd(t *testing.T) {
	req := require.New(t)
	srv, orch := setupServer(t)

	wsA := dialWS(t, srv, "u1")
	wsB := dialWS(t, srv, "u2")
	req.Eventually(func() bool {
		return orch.Registry.IsOnline("u1") && orch.Registry.IsOnline("u2")
	}, 3*time.Second, 10*time.Millisecond)

	req.NoError(wsA.WriteJSON(map[string]any{
		"type":       "call:initiate",
		"receiverId": "u2",
		"callId":     "c1",
		"offer":      map[string]any{"type": "offer", "sdp": "v=0 offer"},
	}))
	incoming := waitFor(t, wsB, "call:incoming")
	req.Equal("c1", incoming["callId"])
	req.Equal("u1", incoming["caller"])

	req.NoError(wsB.WriteJSON(map[string]any{
		"type":   "call:answer",
		"callId": "c1",
		"answer": map[string]any{"type": "answer", "sdp": "v=0 answer"},
	}))
	answered := waitFor(t, wsA, "call:answered")
	req.Equal("c1", answered["callId"])

	// Caller vanishes mid-call: the receiver is told the call ended.
	req.NoError(wsA.Close())
	ended := waitFor(t, wsB, "call:ended")
	req.Equal("c1", ended["callId"])
	req.Eventually(func() bool { return orch.Calls.Len() == 0 }, 3*time.Second, 10*time.Millisecond)
}
