package domain

import "time"

type MessageID string

// Message is the record the persistence layer already wrote; the
// signaling core only relays it and never mutates its fields.
type Message struct {
	ID         MessageID `json:"id"`
	SenderID   UserID    `json:"senderId"`
	ReceiverID UserID    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
