package store

import "math"

// Pagination defaults applied when a caller leaves a field unset.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PaginationParams selects one page of a result set. Page is 1-based.
type PaginationParams struct {
	Page  int
	Limit int
}

// Normalize replaces non-positive values with the defaults.
func (p PaginationParams) Normalize() PaginationParams {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// InRange reports whether the last row of the page is addressable as an int,
// so Offset and Offset+Limit cannot overflow.
func (p PaginationParams) InRange() bool {
	p = p.Normalize()
	return p.Limit <= math.MaxInt/p.Page
}

// Offset is the number of rows skipped before this page. It saturates at
// math.MaxInt for pages that are not InRange.
func (p PaginationParams) Offset() int {
	p = p.Normalize()
	if !p.InRange() {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// PaginatedResult is one page of items plus totals.
type PaginatedResult[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPaginatedResult wraps one already-sliced page. Data is never nil.
func NewPaginatedResult[T any](items []T, total int, params PaginationParams) *PaginatedResult[T] {
	params = params.Normalize()
	if items == nil {
		items = []T{}
	}
	totalPages := total / params.Limit
	if total%params.Limit != 0 {
		totalPages++
	}
	return &PaginatedResult[T]{
		Data:       items,
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Paginate slices an in-memory, already-sorted result set.
func Paginate[T any](all []T, params PaginationParams) *PaginatedResult[T] {
	params = params.Normalize()
	start := min(params.Offset(), len(all))
	end := start + min(params.Limit, len(all)-start)
	return NewPaginatedResult(all[start:end:end], len(all), params)
}
