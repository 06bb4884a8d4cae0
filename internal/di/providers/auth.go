package providers

import (
	"github.com/samber/do/v2"

	"github.com/quillnotes/quill-server/internal/auth"
	"github.com/quillnotes/quill-server/internal/config"
	"github.com/quillnotes/quill-server/internal/logger"
)

// ProvideIssuer provides the session token issuer selected by TOKEN_FORMAT.
func ProvideIssuer(i do.Injector) (auth.Issuer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Auth.TokenFormat != config.TokenFormatPaseto {
		log.Info("Session tokens: JWT (HS256)", "ttl", cfg.Auth.TokenTTL)
		return auth.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	}

	key, source, err := pasetoKey(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("Session tokens: PASETO v4.local", "ttl", cfg.Auth.TokenTTL, "key_source", source)
	return auth.NewPasetoIssuer(key, cfg.Auth.TokenTTL)
}

// pasetoKey derives the key from an explicitly configured secret, otherwise
// loads or generates the key file in the data directory.
func pasetoKey(cfg *config.Config) ([]byte, string, error) {
	if cfg.Auth.JWTSecret != "" && cfg.Auth.JWTSecret != config.DefaultJWTSecret {
		key, err := auth.DeriveKey(cfg.Auth.JWTSecret)
		return key, "secret", err
	}
	key, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
	return key, "file", err
}

// ProvideOAuthProvider provides the Google OAuth client.
func ProvideOAuthProvider(i do.Injector) (auth.Provider, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
		log.Warn("Google OAuth client is not configured; sign-in will fail")
	}

	return auth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CallbackURL), nil
}
