package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillnotes/quill-server/internal/auth"
	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/service"
)

// rolesMetadataKey lists the roles an operation accepts in huma.Operation.Metadata.
const rolesMetadataKey = "roles"

type userContextKey struct{}

// authenticate verifies the bearer credential in authHeader and re-resolves
// the user it names.
func (s *Server) authenticate(ctx context.Context, authHeader string) (*domain.User, error) {
	user, err := s.services.Auth.Authenticate(ctx, service.BearerToken(authHeader))
	if err != nil {
		return nil, s.apiError(err)
	}
	return user, nil
}

// guard authenticates the request, then checks the user's role against roles.
// With no roles any authenticated user passes. A user already resolved by
// requireBearer is reused.
func (s *Server) guard(ctx context.Context, authHeader string, roles ...domain.Role) (*domain.User, error) {
	user, ok := ctx.Value(userContextKey{}).(*domain.User)
	if !ok {
		var err error
		if user, err = s.authenticate(ctx, authHeader); err != nil {
			return nil, err
		}
	}
	if err := auth.Authorize(user, roles...); err != nil {
		return nil, s.apiError(err)
	}
	return user, nil
}

// requireBearer runs the guard for bearer-secured operations before huma
// parses and validates their input, so anonymous or under-privileged callers
// get 401/403 rather than input errors.
func (s *Server) requireBearer(ctx huma.Context, next func(huma.Context)) {
	op := ctx.Operation()
	if op == nil || len(op.Security) == 0 {
		next(ctx)
		return
	}

	roles, _ := op.Metadata[rolesMetadataKey].([]domain.Role)
	user, err := s.guard(ctx.Context(), ctx.Header("Authorization"), roles...)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	next(huma.WithValue(ctx, userContextKey{}, user))
}

// writeError writes err outside an operation handler.
func (s *Server) writeError(ctx huma.Context, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		errors.As(s.apiError(err), &apiErr)
	}
	if werr := huma.WriteErr(s.api, ctx, apiErr.Status, apiErr.Message, apiErr); werr != nil {
		s.logger.Error("failed to write error response", "error", werr)
	}
}

// AuthenticatedInput carries the bearer credential.
type AuthenticatedInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
}

// bearerSecurity marks an operation as requiring a bearer token in the OpenAPI document.
var bearerSecurity = []map[string][]string{{"bearer": {}}}

// adminOnly restricts an operation to administrators.
var adminOnly = map[string]any{rolesMetadataKey: []domain.Role{domain.RoleAdmin}}
