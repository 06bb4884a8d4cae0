package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTagFilter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"single", "work", []string{"work"}},
		{"trimmed", " work , home ", []string{"work", "home"}},
		{"drops empty entries", "a,,b, ,c", []string{"a", "b", "c"}},
		{"only separators", ", ,,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTagFilter(tt.in))
		})
	}
}

func TestNoteFilter_Matches(t *testing.T) {
	note := &Note{OwnerID: "owner", Category: "work", Tags: []string{"go", "api"}}

	tests := []struct {
		name   string
		filter NoteFilter
		want   bool
	}{
		{"owner only", NoteFilter{OwnerID: "owner"}, true},
		{"other owner", NoteFilter{OwnerID: "someone"}, false},
		{"category match", NoteFilter{OwnerID: "owner", Category: "work"}, true},
		{"category mismatch", NoteFilter{OwnerID: "owner", Category: "home"}, false},
		{"any tag matches", NoteFilter{OwnerID: "owner", Tags: []string{"rust", "api"}}, true},
		{"no tag matches", NoteFilter{OwnerID: "owner", Tags: []string{"rust"}}, false},
		{"category and tags both required", NoteFilter{OwnerID: "owner", Category: "home", Tags: []string{"go"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(note))
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{}, NormalizeTags(nil))
	assert.Equal(t, []string{"a", "b"}, NormalizeTags([]string{" a", "b "}))
}
