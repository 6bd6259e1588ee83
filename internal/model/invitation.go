package model

import (
	"time"

	"github.com/google/uuid"
)

// Invitation grants the holder of Code the right to register with Role
type Invitation struct {
	Code      string     `json:"code" db:"code"`
	Role      string     `json:"role" db:"role"`
	Email     *string    `json:"email,omitempty" db:"email"`
	CreatedBy uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty" db:"used_at"`
	UsedBy    *uuid.UUID `json:"used_by,omitempty" db:"used_by"`
}

// IsExpired reports whether the invitation has expired at now
func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// IsUsed reports whether the invitation was already redeemed
func (i *Invitation) IsUsed() bool {
	return i.UsedAt != nil
}

// CreateInvitationRequest represents invitation creation parameters
type CreateInvitationRequest struct {
	Role     string `json:"role" binding:"required,role"`
	Email    string `json:"email" binding:"omitempty,email"`
	TTLHours int    `json:"ttl_hours" binding:"omitempty,min=1,max=720"`
}
