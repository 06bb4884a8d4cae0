package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/quillnotes/quill-server/internal/domain"
)

// ErrProviderExchange is returned when the authorization code cannot be
// turned into a profile.
var ErrProviderExchange = errors.New("oauth exchange failed")

// Provider is an OAuth identity provider.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.Profile, error)
}

// GoogleProvider implements Provider with Google's OAuth 2.0 endpoints.
type GoogleProvider struct {
	config *oauth2.Config
	// extra options for the userinfo client, used to point tests at a fake server
	apiOptions []option.ClientOption
}

// GoogleOption customises a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithEndpoints overrides the OAuth and userinfo endpoints.
func WithEndpoints(endpoint oauth2.Endpoint, userinfoBaseURL string) GoogleOption {
	return func(p *GoogleProvider) {
		p.config.Endpoint = endpoint
		p.apiOptions = append(p.apiOptions, option.WithEndpoint(userinfoBaseURL))
	}
}

// NewGoogleProvider configures the consent flow with scopes email and profile.
func NewGoogleProvider(clientID, clientSecret, redirectURL string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AuthCodeURL returns the consent page URL carrying state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades the authorization code for a token and reads the userinfo.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*domain.Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %v", ErrProviderExchange, err)
	}

	opts := append([]option.ClientOption{option.WithTokenSource(p.config.TokenSource(ctx, token))}, p.apiOptions...)
	svc, err := googleoauth.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create oauth2 service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %v", ErrProviderExchange, err)
	}

	return profileFromUserinfo(info)
}

func profileFromUserinfo(info *googleoauth.Userinfo) (*domain.Profile, error) {
	email := strings.TrimSpace(info.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: provider returned no email", ErrProviderExchange)
	}
	return &domain.Profile{
		Email:     email,
		FirstName: info.GivenName,
		LastName:  info.FamilyName,
		Picture:   info.Picture,
		Provider:  domain.ProviderGoogle,
	}, nil
}
