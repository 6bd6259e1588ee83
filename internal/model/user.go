package model

import (
	"time"

	"github.com/google/uuid"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusLocked   = "locked"
)

// Role constants
const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleStudent = "student"
)

// IsValidRole reports whether role is one of the known roles
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStaff, RoleStudent:
		return true
	}
	return false
}

// IsModerator reports whether the role may moderate other users' content
func IsModerator(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}

// User represents a forum account
type User struct {
	Base
	Username             string     `json:"username" db:"username"`
	Email                string     `json:"email" db:"email"`
	Name                 string     `json:"name" db:"name"`
	PasswordHash         string     `json:"-" db:"password_hash"`
	Role                 string     `json:"role" db:"role"`
	Status               string     `json:"status" db:"status"`
	MustResetPassword    bool       `json:"must_reset_password" db:"must_reset_password"`
	LoginAttempts        int        `json:"-" db:"login_attempts"`
	LastLoginAttempt     *time.Time `json:"-" db:"last_login_attempt"`
	LastLoginAt          *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	LastPasswordChangeAt *time.Time `json:"last_password_change_at,omitempty" db:"last_password_change_at"`
}

// UserFilters represents user search parameters
type UserFilters struct {
	Page
	Role   string `form:"role" binding:"omitempty,role"`
	Status string `form:"status" binding:"omitempty,oneof=active inactive locked"`
}

// CreateUserRequest represents admin user creation parameters
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,username"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,max=100"`
	Role     string `json:"role" binding:"required,role"`
	Password string `json:"password"`
}

// UpdateUserRequest represents user update parameters
type UpdateUserRequest struct {
	Name   *string `json:"name" binding:"omitempty,max=100"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Role   *string `json:"role" binding:"omitempty,role"`
	Status *string `json:"status" binding:"omitempty,oneof=active inactive locked"`
}

// SetPasswordRequest is used by admins to assign a temporary password
type SetPasswordRequest struct {
	Password string `json:"password"`
}

// ChangePasswordRequest is used by a signed-in user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password"`
}

// Actor identifies the authenticated caller of a service operation
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     string
}
