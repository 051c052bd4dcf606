package core

import "github.com/avdeyev/linkup/internal/domain"

// Frame is a raw JSON payload delivered to a client.
type Frame []byte

// ConnID identifies a single live connection. A user may own several
// connections at once (multi-device), each with its own ConnID.
type ConnID string

// Connection abstracts a transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type Connection interface {
	ID() ConnID
	UserID() domain.UserID
	TrySend(Frame) error
	Close()
}
