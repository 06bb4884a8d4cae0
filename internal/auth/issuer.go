// Package auth issues and verifies session credentials, talks to the OAuth
// provider and evaluates role requirements.
package auth

import (
	"errors"
	"time"

	"github.com/quillnotes/quill-server/internal/domain"
)

const (
	tokenIssuer   = "quill-server"
	tokenAudience = "quill-client"

	// DefaultTTL is the session credential lifetime when none is configured.
	DefaultTTL = 24 * time.Hour
)

var (
	// ErrInvalidToken covers malformed, tampered and wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for an otherwise valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// SessionClaims is what a verified session credential asserts.
type SessionClaims struct {
	Subject   string
	Email     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer signs and verifies session credentials.
type Issuer interface {
	Issue(user *domain.User) (token string, expiresAt time.Time, err error)
	Verify(token string) (*SessionClaims, error)
	TTL() time.Duration
}

// clock lets tests pin the current time.
type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
