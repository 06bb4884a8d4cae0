package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quillnotes/quill-server/internal/auth"
	"github.com/quillnotes/quill-server/internal/domain"
	domainerrors "github.com/quillnotes/quill-server/internal/errors"
	"github.com/quillnotes/quill-server/internal/metrics"
)

// AuthService handles OAuth sign-in and bearer token authentication.
type AuthService struct {
	users    *UserService
	issuer   auth.Issuer
	provider auth.Provider
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users *UserService,
	issuer auth.Issuer,
	provider auth.Provider,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *AuthService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{
		users:    users,
		issuer:   issuer,
		provider: provider,
		metrics:  recorder,
		logger:   logger,
	}
}

// LoginResult is the outcome of a successful sign-in.
type LoginResult struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

// AuthCodeURL returns the provider consent URL carrying state.
func (s *AuthService) AuthCodeURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// Login exchanges an authorization code for a profile, resolves the user
// and issues a session token.
func (s *AuthService) Login(ctx context.Context, code string) (*LoginResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domainerrors.Validation("authorization code is required")
	}

	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.metrics.Login(false)
		s.logger.Warn("oauth exchange failed", "error", err)
		if errors.Is(err, auth.ErrProviderExchange) {
			return nil, domainerrors.Unauthorized("sign-in with provider failed").WithCause(err)
		}
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	user, err := s.users.FindOrCreate(ctx, *profile)
	if err != nil {
		s.metrics.Login(false)
		return nil, err
	}

	result, err := s.IssueToken(user)
	if err != nil {
		s.metrics.Login(false)
		return nil, err
	}

	s.metrics.Login(true)
	s.logger.Info("user signed in", "user_id", user.ID)
	return result, nil
}

// IssueToken issues a session token for user.
func (s *AuthService) IssueToken(user *domain.User) (*LoginResult, error) {
	token, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Authenticate verifies a bearer token and re-resolves its subject.
// A subject that no longer resolves to a user is unauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domainerrors.Unauthorized("missing bearer token")
	}

	claims, err := s.issuer.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, domainerrors.TokenExpired("token expired")
		}
		return nil, domainerrors.Unauthorized("invalid token").WithCause(err)
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		switch domainerrors.CodeOf(err) {
		case domainerrors.CodeNotFound, domainerrors.CodeValidation:
			return nil, domainerrors.Unauthorized("user no longer exists")
		}
		return nil, err
	}
	return user, nil
}

// BearerToken extracts the token from an Authorization header value.
// Returns "" when the header is not a bearer credential.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
