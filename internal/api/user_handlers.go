package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/store"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Description: "Returns all users newest first (admin only)",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
		Metadata:    adminOnly,
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "assignRole",
		Method:      http.MethodPatch,
		Path:        "/users",
		Summary:     "Assign role",
		Description: "Changes a user's role (admin only)",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
		Metadata:    adminOnly,
	}, s.handleAssignRole)
}

// === DTOs ===

// ListUsersInput selects a page of users.
type ListUsersInput struct {
	AuthenticatedInput
	PageQuery
}

// UserListOutput wraps a page of users for Huma.
type UserListOutput struct {
	Body *store.PaginatedResult[*domain.User]
}

// AssignRoleRequest is the request body for a role change.
type AssignRoleRequest struct {
	UserID string `json:"userId" doc:"User to change"`
	Role   string `json:"role" doc:"New role: user or admin"`
}

// AssignRoleInput wraps the role change for Huma.
type AssignRoleInput struct {
	AuthenticatedInput
	Body AssignRoleRequest
}

// === Handlers ===

func (s *Server) handleListUsers(ctx context.Context, input *ListUsersInput) (*UserListOutput, error) {
	if _, err := s.guard(ctx, input.Authorization, domain.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.services.User.List(ctx, input.Page, input.Limit)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &UserListOutput{Body: users}, nil
}

func (s *Server) handleAssignRole(ctx context.Context, input *AssignRoleInput) (*UserOutput, error) {
	if _, err := s.guard(ctx, input.Authorization, domain.RoleAdmin); err != nil {
		return nil, err
	}

	user, err := s.services.User.AssignRole(ctx, input.Body.UserID, domain.Role(input.Body.Role))
	if err != nil {
		return nil, s.apiError(err)
	}
	return &UserOutput{Body: user}, nil
}
