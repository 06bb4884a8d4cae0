package providers

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/samber/do/v2"

	"github.com/quillnotes/quill-server/internal/config"
	"github.com/quillnotes/quill-server/internal/logger"
	"github.com/quillnotes/quill-server/internal/search"
	"github.com/quillnotes/quill-server/internal/service"
)

// SearchHandle wraps the note index and its service with shutdown capability.
// Both fields are nil when search is disabled.
type SearchHandle struct {
	Index   *search.NoteIndex
	Service *service.SearchService

	mu      sync.Mutex
	cancel  context.CancelFunc
	reindex sync.WaitGroup
}

// StartReindex rebuilds the index in the background. The rebuild is
// cancelled and awaited by Shutdown.
func (h *SearchHandle) StartReindex(log *logger.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Service == nil || h.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.reindex.Add(1)
	go func() {
		defer h.reindex.Done()
		if err := h.Service.ReindexAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Search reindex failed", "error", err)
		}
	}()
}

// Shutdown implements do.Shutdownable. The index stays open until a running
// reindex has returned.
func (h *SearchHandle) Shutdown() error {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.mu.Unlock()
	h.reindex.Wait()

	if h.Index == nil {
		return nil
	}
	return h.Index.Close()
}

// ProvideSearch opens the note index and attaches it to the note service.
func ProvideSearch(i do.Injector) (*SearchHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Features.SearchEnabled {
		log.Info("Search disabled")
		return &SearchHandle{}, nil
	}

	storeHandle := do.MustInvoke[*StoreHandle](i)
	notes := do.MustInvoke[*service.NoteService](i)

	index, err := search.NewNoteIndex(search.Options{
		DataPath: filepath.Join(cfg.Storage.DataPath, "search"),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	svc := service.NewSearchService(index, storeHandle.Store, log.Logger)
	notes.SetIndexer(svc)

	return &SearchHandle{Index: index, Service: svc}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when it
// is empty, e.g. on first start or after a mapping change.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	handle := do.MustInvoke[*SearchHandle](i)
	if handle.Service == nil {
		return
	}
	log := do.MustInvoke[*logger.Logger](i)

	count, err := handle.Service.DocumentCount()
	if err != nil {
		log.Warn("Failed to read search index size", "error", err)
		return
	}
	if count > 0 {
		return
	}

	handle.StartReindex(log)
}
