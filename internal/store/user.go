package store

import (
	"context"

	"github.com/quillnotes/quill-server/internal/domain"
)

// CreateUser implements UserStore.
func (s *BadgerStore) CreateUser(ctx context.Context, user *domain.User) error {
	return s.users.Create(ctx, user.ID, user)
}

// GetUser implements UserStore.
func (s *BadgerStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.Get(ctx, id)
}

// GetUserByEmail implements UserStore.
func (s *BadgerStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByIndex(ctx, "email", email)
}

// UpdateUser implements UserStore.
func (s *BadgerStore) UpdateUser(ctx context.Context, user *domain.User) error {
	stored, err := s.users.Modify(ctx, user.ID, func(current *domain.User) error {
		version := current.Version
		*current = *user
		current.Version = version + 1
		return nil
	})
	if err != nil {
		return err
	}
	user.Version = stored.Version
	return nil
}

// ListUsers implements UserStore.
func (s *BadgerStore) ListUsers(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.User], error) {
	users, err := s.users.Collect(ctx)
	if err != nil {
		return nil, err
	}
	sortUsers(users)
	return Paginate(users, params), nil
}
