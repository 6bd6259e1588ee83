package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in TokenClaims
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AuthRequest types
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is submitted by a new user holding an invitation code
type RegisterRequest struct {
	InvitationCode string `json:"invitation_code" binding:"required"`
	Username       string `json:"username" binding:"required,username"`
	Email          string `json:"email" binding:"required,email"`
	Name           string `json:"name" binding:"required,max=100"`
	Password       string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password"`
}

type ValidatePasswordRequest struct {
	Password string `json:"password"`
}

// AuthResponse types
type TokenResponse struct {
	AccessToken       string    `json:"access_token"`
	RefreshToken      string    `json:"refresh_token"`
	TokenType         string    `json:"token_type"`
	ExpiresAt         time.Time `json:"expires_at"`
	MustResetPassword bool      `json:"must_reset_password,omitempty"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	TokenType string    `json:"token_type"`

	// MustResetPassword is filled from the user row on validation, never signed
	MustResetPassword bool `json:"-"`
}

// Actor returns the caller identity carried by the claims
func (c *TokenClaims) Actor() Actor {
	return Actor{UserID: c.UserID, Username: c.Username, Role: c.Role}
}
