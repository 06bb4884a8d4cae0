package providers

import (
	"github.com/samber/do/v2"

	"github.com/quillnotes/quill-server/internal/auth"
	"github.com/quillnotes/quill-server/internal/config"
	"github.com/quillnotes/quill-server/internal/logger"
	"github.com/quillnotes/quill-server/internal/service"
)

// ProvideUserService provides the identity store.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	metricsHandle := do.MustInvoke[*MetricsHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, log.Logger,
		service.WithAdminEmails(cfg.Auth.AdminEmails),
		service.WithUserMetrics(metricsHandle.Recorder()),
	), nil
}

// ProvideAuthService provides the sign-in and access guard service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	users := do.MustInvoke[*service.UserService](i)
	issuer := do.MustInvoke[auth.Issuer](i)
	provider := do.MustInvoke[auth.Provider](i)
	metricsHandle := do.MustInvoke[*MetricsHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(users, issuer, provider, metricsHandle.Recorder(), log.Logger), nil
}

// ProvideNoteService provides the note access service. The search indexer
// is attached by ProvideSearch when search is enabled.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	metricsHandle := do.MustInvoke[*MetricsHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteService(storeHandle.Store, metricsHandle.Recorder(), log.Logger), nil
}
