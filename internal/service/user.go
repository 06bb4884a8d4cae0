package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quillnotes/quill-server/internal/domain"
	domainerrors "github.com/quillnotes/quill-server/internal/errors"
	"github.com/quillnotes/quill-server/internal/id"
	"github.com/quillnotes/quill-server/internal/metrics"
	"github.com/quillnotes/quill-server/internal/store"
)

// UserService resolves identities on sign-in and administers user roles.
type UserService struct {
	store       store.UserStore
	adminEmails map[string]struct{}
	metrics     metrics.Recorder
	logger      *slog.Logger
}

// UserOption configures a UserService.
type UserOption func(*UserService)

// WithAdminEmails makes users created with one of emails administrators.
func WithAdminEmails(emails []string) UserOption {
	return func(s *UserService) {
		for _, e := range emails {
			if e = domain.NormalizeEmail(e); e != "" {
				s.adminEmails[e] = struct{}{}
			}
		}
	}
}

// WithUserMetrics records user creation.
func WithUserMetrics(r metrics.Recorder) UserOption {
	return func(s *UserService) { s.metrics = r }
}

// NewUserService creates a new user service.
func NewUserService(store store.UserStore, logger *slog.Logger, opts ...UserOption) *UserService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &UserService{
		store:       store,
		adminEmails: make(map[string]struct{}),
		metrics:     metrics.Noop{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindOrCreate returns the user with the profile's email, creating it on
// first sign-in. Existing users are returned unchanged.
func (s *UserService) FindOrCreate(ctx context.Context, profile domain.Profile) (*domain.User, error) {
	email := strings.TrimSpace(profile.Email)
	if email == "" {
		return nil, domainerrors.Validation("email is required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	provider := profile.Provider
	if provider == "" {
		provider = domain.ProviderGoogle
	}
	role := domain.RoleUser
	if _, ok := s.adminEmails[domain.NormalizeEmail(email)]; ok {
		role = domain.RoleAdmin
	}

	user = &domain.User{
		ID:        id.New(),
		Email:     email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Picture:   profile.Picture,
		Provider:  provider,
		Role:      role,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a concurrent first sign-in; return the winner.
			existing, getErr := s.store.GetUserByEmail(ctx, email)
			if getErr != nil {
				return nil, fmt.Errorf("find user after conflict: %w", getErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.UserCreated()
	s.logger.Info("user created on sign-in", "user_id", user.ID, "email", user.Email, "role", user.Role)
	return user, nil
}

// FindByID returns a user by identifier.
func (s *UserService) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	userID, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "get user", "user not found")
	}
	return user, nil
}

// List returns one page of users, newest first.
func (s *UserService) List(ctx context.Context, page, limit int) (*store.PaginatedResult[*domain.User], error) {
	params, err := pageParams(page, limit)
	if err != nil {
		return nil, err
	}
	result, err := s.store.ListUsers(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return result, nil
}

// AssignRoleInput is a role change requested by an administrator.
type AssignRoleInput struct {
	UserID string      `json:"userId" validate:"required"`
	Role   domain.Role `json:"role" validate:"required,role"`
}

// AssignRole sets a user's role and returns the updated user.
func (s *UserService) AssignRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	if err := validate.Validate(AssignRoleInput{UserID: userID, Role: role}); err != nil {
		return nil, err
	}
	userID, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "get user", "user not found")
	}

	previous := user.Role
	user.Role = role
	user.Touch()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, storeError(err, "update user", "user not found")
	}

	s.logger.Info("role assigned", "user_id", user.ID, "from", previous, "to", role)
	return user, nil
}
