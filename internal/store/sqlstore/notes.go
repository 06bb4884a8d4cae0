package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/store"
)

// noteColumns must match the scan order in scanNote.
const noteColumns = `id, owner_id, title, content, category, version, created_at, updated_at`

func scanNote(scanner interface{ Scan(dest ...any) error }) (*domain.Note, error) {
	var (
		n         domain.Note
		createdAt int64
		updatedAt int64
	)
	err := scanner.Scan(
		&n.ID,
		&n.OwnerID,
		&n.Title,
		&n.Content,
		&n.Category,
		&n.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.CreatedAt = fromMillis(createdAt)
	n.UpdatedAt = fromMillis(updatedAt)
	n.Tags = []string{}
	return &n, nil
}

// CreateNote inserts the note row and its tags in one transaction.
func (s *Store) CreateNote(ctx context.Context, note *domain.Note) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO notes (id, owner_id, title, content, category, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			note.ID,
			note.OwnerID,
			note.Title,
			note.Content,
			note.Category,
			note.Version,
			toMillis(note.CreatedAt),
			toMillis(note.UpdatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrAlreadyExists.WithCause(err)
			}
			return fmt.Errorf("insert note: %w", err)
		}
		return s.insertTags(ctx, tx, note.ID, note.Tags)
	})
}

func (s *Store) insertTags(ctx context.Context, tx queryer, noteID string, tags []string) error {
	for i, tag := range tags {
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO note_tags (note_id, position, tag) VALUES (?, ?, ?)`),
			noteID, i, tag)
		if err != nil {
			return fmt.Errorf("insert note tag: %w", err)
		}
	}
	return nil
}

// GetNote retrieves a note by ID.
func (s *Store) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+noteColumns+` FROM notes WHERE id = ?`), id)
	return s.oneNote(ctx, row)
}

// GetOwnedNote retrieves a note by ID and owner in a single predicate.
func (s *Store) GetOwnedNote(ctx context.Context, id, ownerID string) (*domain.Note, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+noteColumns+` FROM notes WHERE id = ? AND owner_id = ?`), id, ownerID)
	return s.oneNote(ctx, row)
}

func (s *Store) oneNote(ctx context.Context, row *sql.Row) (*domain.Note, error) {
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan note: %w", err)
	}
	if err := s.loadTags(ctx, []*domain.Note{n}); err != nil {
		return nil, err
	}
	return n, nil
}

// loadTags fills Tags for every note with one query, preserving tag order.
func (s *Store) loadTags(ctx context.Context, notes []*domain.Note) error {
	if len(notes) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Note, len(notes))
	args := make([]any, 0, len(notes))
	for _, n := range notes {
		byID[n.ID] = n
		args = append(args, n.ID)
	}

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT note_id, tag FROM note_tags
		WHERE note_id IN (`+placeholders(len(args))+`)
		ORDER BY note_id, position`), args...)
	if err != nil {
		return fmt.Errorf("load note tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var noteID, tag string
		if err := rows.Scan(&noteID, &tag); err != nil {
			return fmt.Errorf("scan note tag: %w", err)
		}
		if n, ok := byID[noteID]; ok {
			n.Tags = append(n.Tags, tag)
		}
	}
	return rows.Err()
}

// UpdateNote rewrites the note row and replaces its tags.
func (s *Store) UpdateNote(ctx context.Context, note *domain.Note) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var version int
		err := tx.QueryRowContext(ctx, s.q(`
			UPDATE notes SET
				title = ?, content = ?, category = ?, updated_at = ?, version = version + 1
			WHERE id = ?
			RETURNING version`),
			note.Title,
			note.Content,
			note.Category,
			toMillis(note.UpdatedAt),
			note.ID,
		).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update note: %w", err)
		}

		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM note_tags WHERE note_id = ?`), note.ID); err != nil {
			return fmt.Errorf("clear note tags: %w", err)
		}
		if err := s.insertTags(ctx, tx, note.ID, note.Tags); err != nil {
			return err
		}

		note.Version = version
		return nil
	})
}

// DeleteNote removes a note and its tags.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM note_tags WHERE note_id = ?`), id); err != nil {
			return fmt.Errorf("delete note tags: %w", err)
		}
		res, err := tx.ExecContext(ctx, s.q(`DELETE FROM notes WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		if affected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

// ListNotes filters on owner, category and any-of tags, newest first.
func (s *Store) ListNotes(ctx context.Context, filter domain.NoteFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Note], error) {
	params = params.Normalize()

	where := []string{"owner_id = ?"}
	args := []any{filter.OwnerID}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if len(filter.Tags) > 0 {
		where = append(where, `EXISTS (
			SELECT 1 FROM note_tags t
			WHERE t.note_id = notes.id AND t.tag IN (`+placeholders(len(filter.Tags))+`))`)
		for _, tag := range filter.Tags {
			args = append(args, tag)
		}
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM notes`+clause), args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count notes: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+noteColumns+` FROM notes`+clause+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`), append(args, params.Limit, params.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := s.loadTags(ctx, notes); err != nil {
		return nil, err
	}
	return store.NewPaginatedResult(notes, total, params), nil
}
