package auth

import (
	"fmt"

	"github.com/quillnotes/quill-server/internal/domain"
	domainerrors "github.com/quillnotes/quill-server/internal/errors"
)

// Authorize checks user's role against the accepted set.
// An empty set accepts any authenticated user.
func Authorize(user *domain.User, roles ...domain.Role) error {
	if user == nil {
		return domainerrors.Unauthorized("authentication required")
	}
	if user.HasRole(roles...) {
		return nil
	}
	return domainerrors.Forbidden(fmt.Sprintf("role %q is not allowed to perform this action", user.Role))
}
