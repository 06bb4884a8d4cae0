package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query. OwnerID is required.
type SearchParams struct {
	OwnerID string
	Query   string

	Limit  int
	Offset int
}

// SearchResult is one page of hits.
type SearchResult struct {
	Total uint64
	Hits  []SearchHit
}

// SearchHit is a single matching note in rank order.
type SearchHit struct {
	ID string
}

// IDs returns the note ids of the hits in rank order.
func (r *SearchResult) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

// Search executes a query restricted to params.OwnerID.
// An empty query lists the owner's notes newest first.
func (s *NoteIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.OwnerID == "" {
		return nil, fmt.Errorf("search: owner is required")
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	if strings.TrimSpace(params.Query) == "" {
		req.SortBy([]string{"-created_at", "-_id"})
	} else {
		req.SortBy([]string{"-_score", "-created_at"})
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Total: res.Total,
		Hits:  make([]SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		result.Hits = append(result.Hits, SearchHit{ID: hit.ID})
	}

	return result, nil
}

// buildSearchQuery combines the owner filter with the text query.
func buildSearchQuery(params SearchParams) query.Query {
	owner := bleve.NewTermQuery(params.OwnerID)
	owner.SetField("owner_id")

	text := strings.TrimSpace(params.Query)
	if text == "" {
		return owner
	}

	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	contentMatch := bleve.NewMatchQuery(text)
	contentMatch.SetField("content")

	tagMatch := bleve.NewTermQuery(text)
	tagMatch.SetField("tags")
	tagMatch.SetBoost(2.0)

	categoryMatch := bleve.NewTermQuery(text)
	categoryMatch.SetField("category")

	// Typo tolerance on the title.
	fuzzy := bleve.NewFuzzyQuery(strings.ToLower(text))
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("title")
	fuzzy.SetBoost(0.8)

	textQueries := []query.Query{titleMatch, contentMatch, tagMatch, categoryMatch, fuzzy}

	// Prefix for search-as-you-type (minimum 2 chars).
	if len(text) >= 2 && !strings.Contains(text, " ") {
		prefix := bleve.NewPrefixQuery(strings.ToLower(text))
		prefix.SetField("title")
		prefix.SetBoost(0.5)
		textQueries = append(textQueries, prefix)
	}

	return bleve.NewConjunctionQuery(owner, bleve.NewDisjunctionQuery(textQueries...))
}
