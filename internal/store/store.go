package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/quillnotes/quill-server/internal/domain"
)

// DriverBadger names the embedded Badger backend.
const DriverBadger = "badger"

// BadgerStore is the embedded Badger backend.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger

	users *Entity[domain.User]
	notes *Entity[domain.Note]
}

var _ Store = (*BadgerStore)(nil)

// New opens (or creates) the Badger database at path.
func New(path string, logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	return open(opts, logger)
}

// NewInMemory opens a Badger database that lives only in memory.
func NewInMemory(logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &BadgerStore{db: db, logger: logger}
	s.initUsers()
	s.initNotes()

	logger.Info("Badger database opened", "path", opts.Dir, "in_memory", opts.InMemory)
	return s, nil
}

// Driver implements Store.
func (s *BadgerStore) Driver() string { return DriverBadger }

// Ping reports whether the database is open.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return fmt.Errorf("badger db is closed")
	}
	return nil
}

// Close gracefully closes the database connection. Closing twice is a no-op.
func (s *BadgerStore) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// initUsers indexes users by normalized email so lookups are case-insensitive.
func (s *BadgerStore) initUsers() {
	s.users = NewEntity[domain.User](s, "user:").
		WithIndexTransform("email",
			func(u *domain.User) []string {
				return []string{domain.NormalizeEmail(u.Email)}
			},
			domain.NormalizeEmail,
		)
}

// initNotes indexes notes by owner; every note query is owner-scoped.
func (s *BadgerStore) initNotes() {
	s.notes = NewEntity[domain.Note](s, "note:").
		WithMultiIndex("owner", func(n *domain.Note) []string {
			return []string{n.OwnerID}
		})
}

// newestFirst orders by creation time descending, then id descending.
func newestFirst(aCreated, bCreated time.Time, aID, bID string) int {
	if c := bCreated.Compare(aCreated); c != 0 {
		return c
	}
	return strings.Compare(bID, aID)
}

func sortUsers(users []*domain.User) {
	slices.SortFunc(users, func(a, b *domain.User) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
}

func sortNotes(notes []*domain.Note) {
	slices.SortFunc(notes, func(a, b *domain.Note) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
}
