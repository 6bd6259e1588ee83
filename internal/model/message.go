package model

import (
	"time"

	"github.com/google/uuid"
)

// Message is a private message between two users
type Message struct {
	Base
	SenderID          uuid.UUID  `json:"sender_id" db:"sender_id"`
	SenderUsername    string     `json:"sender_username" db:"sender_username"`
	RecipientID       uuid.UUID  `json:"recipient_id" db:"recipient_id"`
	RecipientUsername string     `json:"recipient_username" db:"recipient_username"`
	Subject           string     `json:"subject" db:"subject"`
	Body              string     `json:"body" db:"body"`
	ReadAt            *time.Time `json:"read_at,omitempty" db:"read_at"`
	SenderDeleted     bool       `json:"-" db:"sender_deleted"`
	RecipientDeleted  bool       `json:"-" db:"recipient_deleted"`
}

// IsParticipant reports whether userID sent or received the message
func (m *Message) IsParticipant(userID uuid.UUID) bool {
	return m.SenderID == userID || m.RecipientID == userID
}

// MessageFilters represents mailbox listing parameters
type MessageFilters struct {
	Page
	UnreadOnly bool `form:"unread"`
}

type SendMessageRequest struct {
	Recipient string `json:"recipient" binding:"required"`
	Subject   string `json:"subject" binding:"required,max=200"`
	Body      string `json:"body" binding:"required"`
}
