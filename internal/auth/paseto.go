package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/id"
)

// PasetoIssuer issues PASETO v4.local tokens. Claims are encrypted, so clients
// cannot read them without the key.
type PasetoIssuer struct {
	key   paseto.V4SymmetricKey
	ttl   time.Duration
	clock clock
}

// NewPasetoIssuer creates an issuer from a 32-byte symmetric key.
func NewPasetoIssuer(key []byte, ttl time.Duration) (*PasetoIssuer, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	symmetric, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	return &PasetoIssuer{key: symmetric, ttl: ttlOrDefault(ttl)}, nil
}

// TTL returns the credential lifetime.
func (i *PasetoIssuer) TTL() time.Duration { return i.ttl }

// Issue encrypts a token for user.
func (i *PasetoIssuer) Issue(user *domain.User) (string, time.Time, error) {
	now := i.clock.now().Truncate(time.Second)
	expiresAt := now.Add(i.ttl)

	tokenID, err := id.Generate("sess")
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token ID: %w", err)
	}

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(user.ID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expiresAt)
	token.SetJti(tokenID)
	token.SetString("email", user.Email)

	return token.V4Encrypt(i.key, nil), expiresAt, nil
}

// Verify decrypts token and checks issuer, audience and expiry.
func (i *PasetoIssuer) Verify(raw string) (*SessionClaims, error) {
	// Expiry is checked by hand so it can be reported separately.
	parser := paseto.MakeParser([]paseto.Rule{
		paseto.IssuedBy(tokenIssuer),
		paseto.ForAudience(tokenAudience),
	})

	token, err := parser.ParseV4Local(i.key, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	exp, err := token.GetExpiration()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !i.clock.now().Before(exp) {
		return nil, ErrTokenExpired
	}

	sub, err := token.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims := &SessionClaims{Subject: sub, ExpiresAt: exp}
	claims.Email, _ = token.GetString("email")
	claims.TokenID, _ = token.GetJti()
	claims.IssuedAt, _ = token.GetIssuedAt()
	return claims, nil
}
