package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/quillnotes/quill-server/internal/errors"
)

type noteRequest struct {
	Title    string   `json:"title" validate:"required,notblank,max=200"`
	Content  *string  `json:"content,omitempty" validate:"omitempty,notblank"`
	Tags     []string `json:"tags" validate:"max=3,dive,notblank"`
	Role     string   `json:"role,omitempty" validate:"omitempty,role"`
	Homepage string   `json:"homepage,omitempty" validate:"omitempty,url"`
}

func TestValidate_Valid(t *testing.T) {
	v := New()
	content := "body"

	err := v.Validate(noteRequest{Title: "hello", Content: &content, Tags: []string{"a"}, Role: "admin"})
	assert.NoError(t, err)
}

func TestValidate_FieldErrors(t *testing.T) {
	v := New()
	blank := "   "

	err := v.Validate(noteRequest{
		Title:   "",
		Content: &blank,
		Tags:    []string{"ok", " "},
		Role:    "root",
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["title"])
	assert.Equal(t, "must not be blank", details["content"])
	assert.Equal(t, "must not be blank", details["tags[1]"])
	assert.Equal(t, "must be one of: user, admin", details["role"])
}

func TestValidate_SliceMax(t *testing.T) {
	v := New()

	err := v.Validate(noteRequest{Title: "t", Tags: []string{"a", "b", "c", "d"}})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)
	assert.Equal(t, "must not contain more than 3 items", details["tags"])
}

func TestValidate_NilPointerSkipped(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(noteRequest{Title: "t"}))
}
