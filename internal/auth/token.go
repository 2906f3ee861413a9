// Package auth issues and verifies the bearer tokens that admit users to the
// REST surface and the realtime endpoint, and hashes their passwords.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification: malformed,
// expired, bad signature, or missing the user claim. Callers must not
// distinguish between these cases.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload carried by every issued token. The "userid" key matches
// the wire format expected by existing clients.
type Claims struct {
	UserID string `json:"userid"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens with a shared secret.
type TokenManager struct {
	secret   []byte
	duration time.Duration
}

// NewTokenManager creates a TokenManager signing with secret and issuing tokens
// valid for the given duration.
func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), duration: duration}
}

// Issue creates a signed token for the given user.
func (m *TokenManager) Issue(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "sketchdeck",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a token string and returns the authenticated
// user id. Every failure mode collapses into ErrInvalidToken so the caller
// leaks nothing about why a credential was rejected.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
