// Package domain contains entities without logic, just meta-data.
package domain

// UserID is the verified identifier the auth layer yields; all
// presence, routing and call state is keyed by it.
type UserID string
