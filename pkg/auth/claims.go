package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the typed JWT carried by the storefront session cookie.
type SessionClaims struct {
	SessionID uuid.UUID `json:"session_id"`
	jwt.RegisteredClaims
}
