// Package providers contains dependency injection providers for the Quill server.
package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/quillnotes/quill-server/internal/config"
	"github.com/quillnotes/quill-server/internal/logger"
	"github.com/quillnotes/quill-server/internal/secret"
)

// ProvideConfig loads the configuration and resolves "ssm:" secret references.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := ResolveSecrets(context.Background(), cfg, nil); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveSecrets expands SSM references in cfg. A nil resolver builds one
// from the default AWS credential chain, only when a reference exists.
func ResolveSecrets(ctx context.Context, cfg *config.Config, resolver secret.Resolver) error {
	values := []*string{&cfg.Auth.JWTSecret, &cfg.Google.ClientSecret, &cfg.Storage.DatabaseURL}
	if !secret.NeedsResolve(cfg.Auth.JWTSecret, cfg.Google.ClientSecret, cfg.Storage.DatabaseURL) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if resolver == nil {
		ssmResolver, err := secret.NewDefaultSSMResolver(ctx)
		if err != nil {
			return err
		}
		resolver = ssmResolver
	}
	if err := secret.Expand(ctx, resolver, values...); err != nil {
		return fmt.Errorf("resolve secrets: %w", err)
	}
	return nil
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Quill server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"store", cfg.Storage.Driver,
		"data_path", cfg.Storage.DataPath,
		"token_format", cfg.Auth.TokenFormat,
	)

	return log, nil
}
