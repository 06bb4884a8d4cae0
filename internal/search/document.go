// Package search provides owner-scoped full-text search over notes using Bleve.
package search

import (
	"github.com/quillnotes/quill-server/internal/domain"
)

// NoteDocument is the indexed form of a note.
type NoteDocument struct {
	ID       string   `json:"id"`
	OwnerID  string   `json:"owner_id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`

	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve uses Go struct field names by default, but the mapping uses
// lowercase names.
func (d *NoteDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"owner_id":   d.OwnerID,
		"title":      d.Title,
		"content":    d.Content,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.Category != "" {
		m["category"] = d.Category
	}
	return m
}

// NoteToDocument converts a domain Note to a NoteDocument.
func NoteToDocument(n *domain.Note) *NoteDocument {
	return &NoteDocument{
		ID:        n.ID,
		OwnerID:   n.OwnerID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      n.Tags,
		Category:  n.Category,
		CreatedAt: n.CreatedAt.UnixMilli(),
		UpdatedAt: n.UpdatedAt.UnixMilli(),
	}
}
