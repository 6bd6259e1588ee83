package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// AuditLog records a security-relevant action
type AuditLog struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty" db:"actor_id"`
	Action     string         `json:"action" db:"action"`
	EntityType string         `json:"entity_type" db:"entity_type"`
	EntityID   string         `json:"entity_id" db:"entity_id"`
	Metadata   types.JSONText `json:"metadata,omitempty" db:"metadata"`
	IPAddress  string         `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// AuditFilters represents audit log listing parameters
type AuditFilters struct {
	Page
	ActorID    *uuid.UUID `form:"-"`
	Action     string     `form:"action"`
	EntityType string     `form:"entity_type"`
}
