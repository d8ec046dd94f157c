package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the explicit viewer context handed to chat operations.
type Session struct {
	ID       string    `json:"id"`
	Role     Role      `json:"role"`
	IssuedAt time.Time `json:"issuedAt"`
}

// StartSessionRequest opens a new viewer session.
type StartSessionRequest struct {
	Role Role `json:"role" validate:"required,oneof=student teacher"`
}

// StartSessionResponse returns the bearer token for the new session.
type StartSessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Session   Session   `json:"session"`
}

// SessionClaims is the signed token payload.
type SessionClaims struct {
	SessionID string `json:"session_id"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}
