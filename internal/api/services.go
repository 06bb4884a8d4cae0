package api

import "github.com/quillnotes/quill-server/internal/service"

// Services groups the business logic used by the API server.
type Services struct {
	Auth   *service.AuthService
	User   *service.UserService
	Note   *service.NoteService
	Search *service.SearchService // nil when search is disabled
}
