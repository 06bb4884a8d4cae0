package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, email, first_name, last_name, picture, provider, role, version, created_at, updated_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		role      string
		createdAt int64
		updatedAt int64
	)
	err := scanner.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Picture,
		&u.Provider,
		&role,
		&u.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return &u, nil
}

// CreateUser inserts a new user.
// Returns store.ErrAlreadyExists if the user ID or email already exists.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO users (
			id, email, email_lower, first_name, last_name, picture, provider, role,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		user.ID,
		user.Email,
		domain.NormalizeEmail(user.Email),
		user.FirstName,
		user.LastName,
		user.Picture,
		user.Provider,
		string(user.Role),
		user.Version,
		toMillis(user.CreatedAt),
		toMillis(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	return s.oneUser(row)
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+userColumns+` FROM users WHERE email_lower = ?`), domain.NormalizeEmail(email))
	return s.oneUser(row)
}

func (s *Store) oneUser(row *sql.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// UpdateUser writes every mutable column and increments the version.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	var version int
	err := s.db.QueryRowContext(ctx, s.q(`
		UPDATE users SET
			email = ?, email_lower = ?, first_name = ?, last_name = ?, picture = ?,
			provider = ?, role = ?, updated_at = ?, version = version + 1
		WHERE id = ?
		RETURNING version`),
		user.Email,
		domain.NormalizeEmail(user.Email),
		user.FirstName,
		user.LastName,
		user.Picture,
		user.Provider,
		string(user.Role),
		toMillis(user.UpdatedAt),
		user.ID,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		return fmt.Errorf("update user: %w", err)
	}
	user.Version = version
	return nil
}

// ListUsers returns one page of users, newest first.
func (s *Store) ListUsers(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.User], error) {
	params = params.Normalize()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+userColumns+` FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`), params.Limit, params.Offset())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return store.NewPaginatedResult(users, total, params), nil
}
