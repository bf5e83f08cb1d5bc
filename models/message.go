package models

import "time"

// Message is a push message kept in the local inbox.
type Message struct {
	ID         string    `json:"messageId"`
	Title      string    `json:"title,omitempty"`
	Body       string    `json:"body,omitempty"`
	Payload    string    `json:"payload,omitempty"`
	IsRead     bool      `json:"isRead"`
	ReceivedAt time.Time `json:"receivedAt"`
}
