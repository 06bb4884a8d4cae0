package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/quillnotes/quill-server/internal/domain"
	domainerrors "github.com/quillnotes/quill-server/internal/errors"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "googleLogin",
		Method:        http.MethodGet,
		Path:          "/auth/google",
		Summary:       "Start Google sign-in",
		Description:   "Redirects to the Google consent page",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusFound,
	}, s.handleGoogleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "googleCallback",
		Method:      http.MethodGet,
		Path:        "/auth/google/redirect",
		Summary:     "Google sign-in callback",
		Description: "Exchanges the authorization code, creates the user on first sign-in and returns a bearer token",
		Tags:        []string{"Authentication"},
	}, s.handleGoogleCallback)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/auth/profile",
		Summary:     "Current user",
		Description: "Returns the authenticated user as currently stored",
		Tags:        []string{"Authentication"},
		Security:    bearerSecurity,
	}, s.handleGetProfile)
}

// === DTOs ===

// RedirectOutput sends the browser to the provider.
type RedirectOutput struct {
	Location  string      `header:"Location"`
	SetCookie http.Cookie `header:"Set-Cookie"`
}

// CallbackInput is what the provider sends back.
type CallbackInput struct {
	Code  string `query:"code" doc:"Authorization code"`
	State string `query:"state" doc:"State echoed by the provider"`
	// Cookie set by /auth/google.
	StateCookie string `cookie:"oauth_state"`
}

// LoginResponse contains the issued token and the signed-in user.
type LoginResponse struct {
	Message     string       `json:"message" doc:"Status message"`
	User        *domain.User `json:"user" doc:"Signed-in user"`
	AccessToken string       `json:"accessToken" doc:"Bearer token"`
	ExpiresAt   time.Time    `json:"expiresAt" doc:"Token expiry"`
}

// LoginOutput wraps the login response for Huma.
type LoginOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      LoginResponse
}

// UserOutput wraps a single user for Huma.
type UserOutput struct {
	Body *domain.User
}

// === Handlers ===

func (s *Server) handleGoogleLogin(_ context.Context, _ *struct{}) (*RedirectOutput, error) {
	state := uuid.NewString()
	return &RedirectOutput{
		Location: s.services.Auth.AuthCodeURL(state),
		SetCookie: http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/auth",
			MaxAge:   int(oauthStateTTL.Seconds()),
			HttpOnly: true,
			Secure:   s.opts.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		},
	}, nil
}

func (s *Server) handleGoogleCallback(ctx context.Context, input *CallbackInput) (*LoginOutput, error) {
	if input.Code == "" {
		return nil, s.apiError(domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"query.code": "is required",
		}))
	}

	if s.opts.OAuthStateCheck && !stateMatches(input.State, input.StateCookie) {
		return nil, s.apiError(domainerrors.Unauthorized("oauth state mismatch"))
	}

	result, err := s.services.Auth.Login(ctx, input.Code)
	if err != nil {
		return nil, s.apiError(err)
	}

	return &LoginOutput{
		// Clear the one-shot state cookie.
		SetCookie: http.Cookie{
			Name:     oauthStateCookie,
			Value:    "",
			Path:     "/auth",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.opts.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		},
		Body: LoginResponse{
			Message:     "Login successful",
			User:        result.User,
			AccessToken: result.AccessToken,
			ExpiresAt:   result.ExpiresAt,
		},
	}, nil
}

func (s *Server) handleGetProfile(ctx context.Context, input *AuthenticatedInput) (*UserOutput, error) {
	user, err := s.guard(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func stateMatches(state, cookie string) bool {
	if state == "" || cookie == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(state), []byte(cookie)) == 1
}
