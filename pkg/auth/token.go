package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ticketeira/storefront/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintSessionToken issues the signed browser-session JWT carried by the
// storefront cookie. The token only names the session; all per-session state
// lives server-side under that ID.
func MintSessionToken(cfg config.SessionTokenConfig, now time.Time, sessionID uuid.UUID) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("session secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("session issuer is required")
	}
	if cfg.TTL() <= 0 {
		return "", fmt.Errorf("session ttl must be positive")
	}
	if sessionID == uuid.Nil {
		return "", fmt.Errorf("session id is required")
	}

	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL())),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken validates the cookie JWT and returns typed claims.
func ParseSessionToken(cfg config.SessionTokenConfig, tokenString string) (*SessionClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("session token is empty")
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}
	if claims.SessionID == uuid.Nil {
		return nil, fmt.Errorf("session token is missing a session id")
	}

	return claims, nil
}
