package model

import (
	"time"

	"github.com/google/uuid"
)

// Broker channels
const (
	EventUserRegistered = "user.registered"
	EventMessageSent    = "message.sent"
)

// Event is the envelope published on the broker
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

type UserRegisteredPayload struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
}

type MessageSentPayload struct {
	MessageID      uuid.UUID `json:"message_id"`
	SenderUsername string    `json:"sender_username"`
	RecipientID    uuid.UUID `json:"recipient_id"`
	RecipientEmail string    `json:"recipient_email"`
	RecipientName  string    `json:"recipient_name"`
	Subject        string    `json:"subject"`
}
