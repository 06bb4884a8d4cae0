package domain

import "strings"

// Note is a user-owned text document.
type Note struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Category string   `json:"category,omitempty"`
	// OwnerID is set from the authenticated caller on create and never changes.
	OwnerID string `json:"owner"`
	Version int    `json:"version"`
	Timestamps
}

// IsOwnedBy reports whether userID owns the note.
func (n *Note) IsOwnedBy(userID string) bool {
	return n.OwnerID == userID
}

// HasAnyTag reports whether the note carries at least one of tags.
func (n *Note) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range n.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// NoteFilter restricts a note listing. OwnerID is always required.
type NoteFilter struct {
	OwnerID  string
	Category string   // empty means any category
	Tags     []string // empty means any tags; otherwise at least one must match
}

// Matches reports whether n passes the filter.
func (f NoteFilter) Matches(n *Note) bool {
	if n.OwnerID != f.OwnerID {
		return false
	}
	if f.Category != "" && n.Category != f.Category {
		return false
	}
	if len(f.Tags) > 0 && !n.HasAnyTag(f.Tags) {
		return false
	}
	return true
}

// ParseTagFilter splits a comma separated tag list, trimming whitespace and
// dropping empty entries. Notes cannot carry blank tags, so a list made only
// of separators such as ",," applies no tag filter instead of matching nothing.
func ParseTagFilter(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// NormalizeTags trims every tag and guarantees a non-nil slice.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, strings.TrimSpace(t))
	}
	return out
}
