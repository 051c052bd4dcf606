package app

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/avdeyev/linkup/internal/core"
	"github.com/avdeyev/linkup/internal/domain"
)

// Registry is the source of truth for "who is online". It keeps a
// multimap userID -> live connections; the per-user set doubles as the
// user's personal room for routing.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.UserID]map[core.ConnID]core.Connection
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.UserID]map[core.ConnID]core.Connection)}
}

// Register adds conn to its owner's room, creating the room on first
// connection. Returns true iff the user crossed offline -> online.
func (r *Registry) Register(conn core.Connection) bool {
	uid := conn.UserID()
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[uid]
	if !ok {
		room = make(map[core.ConnID]core.Connection)
		r.rooms[uid] = room
	}
	room[conn.ID()] = conn
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Str("conn", string(conn.ID())).Int("devices", len(room)).Msg("registered connection")
	return len(room) == 1
}

// Unregister removes one connection. Returns true iff this was the
// user's last connection, i.e. the user crossed online -> offline.
func (r *Registry) Unregister(uid domain.UserID, id core.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[uid]
	if !ok {
		return false
	}
	if _, ok := room[id]; !ok {
		return false
	}
	delete(room, id)
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Str("conn", string(id)).Int("devices", len(room)).Msg("unregistered connection")
	if len(room) > 0 {
		return false
	}
	delete(r.rooms, uid)
	return true
}

func (r *Registry) IsOnline(uid domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[uid]) > 0
}

// ConnectionsOf snapshots the user's room. Empty slice for offline
// users; routing to them is a no-op, not an error.
func (r *Registry) ConnectionsOf(uid domain.UserID) []core.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.rooms[uid])
}

// AllConnections snapshots every live connection (presence broadcast).
func (r *Registry) AllConnections() []core.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Connection, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, lo.Values(room)...)
	}
	return out
}

func (r *Registry) OnlineUsers() []domain.UserID {
	r.mu.RLock()
	users := lo.Keys(r.rooms)
	r.mu.RUnlock()
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}
