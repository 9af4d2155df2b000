package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Audience is the aud claim of every upload token.
const Audience = "process-image"

// DefaultTokenTTL bounds how long a signed upload token stays valid.
const DefaultTokenTTL = 5 * time.Minute

// SignToken issues an HS256 token for the given session.
func SignToken(secret, sessionID string, now time.Time, ttl time.Duration) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", errors.New("auth secret is empty")
	}
	if sessionID == "" {
		return "", errors.New("session id is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		Audience:  jwt.ClaimStrings{Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
