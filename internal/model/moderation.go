package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ModerationConfig is the single forum-wide moderation settings row
type ModerationConfig struct {
	ID              int            `json:"-" db:"id"`
	BannedWords     pq.StringArray `json:"banned_words" db:"banned_words"`
	MaxPostLength   int            `json:"max_post_length" db:"max_post_length"`
	MaxReplyLength  int            `json:"max_reply_length" db:"max_reply_length"`
	StudentsCanPost bool           `json:"students_can_post" db:"students_can_post"`
	UpdatedBy       *uuid.UUID     `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// DefaultModerationConfig is used until an admin saves a configuration
func DefaultModerationConfig() *ModerationConfig {
	return &ModerationConfig{
		ID:              1,
		BannedWords:     pq.StringArray{},
		MaxPostLength:   10000,
		MaxReplyLength:  5000,
		StudentsCanPost: true,
	}
}

type UpdateModerationRequest struct {
	BannedWords     []string `json:"banned_words"`
	MaxPostLength   int      `json:"max_post_length" binding:"required,min=1"`
	MaxReplyLength  int      `json:"max_reply_length" binding:"required,min=1"`
	StudentsCanPost *bool    `json:"students_can_post" binding:"required"`
}
