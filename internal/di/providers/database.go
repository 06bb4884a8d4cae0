package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/quillnotes/quill-server/internal/config"
	"github.com/quillnotes/quill-server/internal/logger"
	"github.com/quillnotes/quill-server/internal/store"
	"github.com/quillnotes/quill-server/internal/store/mongostore"
	"github.com/quillnotes/quill-server/internal/store/sqlstore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured store backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := openStore(context.Background(), cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", st.Driver())
	return &StoreHandle{Store: st}, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (store.Store, error) {
	if cfg.Driver == config.DriverBadger || cfg.Driver == config.DriverSQLite {
		if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	switch cfg.Driver {
	case config.DriverBadger:
		return store.New(filepath.Join(cfg.DataPath, "db"), log.Logger)
	case config.DriverSQLite:
		return sqlstore.OpenSQLite(ctx, filepath.Join(cfg.DataPath, "quill.db"), log.Logger)
	case config.DriverPostgres:
		return sqlstore.OpenPostgres(ctx, cfg.DatabaseURL, log.Logger)
	case config.DriverMongo:
		return mongostore.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase, log.Logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
