package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a session cookie that failed signature or
// expiry checks.
var ErrInvalidToken = errors.New("invalid session token")

// NewRandomToken returns a 256-bit random value, URL-safe encoded. Used for
// session identifiers and CSRF tokens.
func NewRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// TokenManager signs and verifies the session cookie. The cookie carries the
// server-side session identifier as a JWT claim so a tampered cookie is
// rejected before any database lookup.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a TokenManager from the shared signing secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// TTL reports how long issued cookies remain valid.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Sign wraps the session identifier in a signed, expiring JWT.
func (m *TokenManager) Sign(sessionToken string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sessionToken,
		"iat": now.Unix(),
		"exp": now.Add(m.ttl).Unix(),
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the cookie signature and expiry and returns the embedded
// session identifier.
func (m *TokenManager) Verify(cookie string) (string, error) {
	token, err := jwt.Parse(cookie, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", ErrInvalidToken
	}
	return sid, nil
}
