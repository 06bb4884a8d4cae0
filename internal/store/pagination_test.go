package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationParams_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		input PaginationParams
		want  PaginationParams
	}{
		{"zero values use defaults", PaginationParams{}, PaginationParams{Page: 1, Limit: 10}},
		{"negative values use defaults", PaginationParams{Page: -2, Limit: -5}, PaginationParams{Page: 1, Limit: 10}},
		{"valid values kept", PaginationParams{Page: 3, Limit: 25}, PaginationParams{Page: 3, Limit: 25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.Normalize())
		})
	}
}

func TestPaginationParams_Offset(t *testing.T) {
	assert.Equal(t, 0, PaginationParams{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, PaginationParams{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, PaginationParams{}.Offset())
}

func TestNewPaginatedResult_TotalPages(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 5, 5},
		{26, 5, 6},
		{3, math.MaxInt, 1},
		{math.MaxInt, 2, math.MaxInt/2 + 1},
	}
	for _, tt := range tests {
		res := NewPaginatedResult[int](nil, tt.total, PaginationParams{Page: 1, Limit: tt.limit})
		assert.Equal(t, tt.want, res.TotalPages, "total=%d limit=%d", tt.total, tt.limit)
		assert.NotNil(t, res.Data)
	}
}

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	res := Paginate(all, PaginationParams{Page: 2, Limit: 2})
	assert.Equal(t, []int{3, 4}, res.Data)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 2, res.Page)

	res = Paginate(all, PaginationParams{Page: 3, Limit: 2})
	assert.Equal(t, []int{5}, res.Data)

	res = Paginate(all, PaginationParams{Page: 9, Limit: 2})
	assert.Equal(t, []int{}, res.Data)
	assert.Equal(t, 5, res.Total)

	// Appending to a page must not clobber the source.
	res = Paginate(all, PaginationParams{Page: 1, Limit: 2})
	_ = append(res.Data, 99)
	assert.Equal(t, 3, all[2])
}

func TestPaginationParams_InRange(t *testing.T) {
	tests := []struct {
		name   string
		params PaginationParams
		want   bool
	}{
		{"defaults", PaginationParams{}, true},
		{"first page with max limit", PaginationParams{Page: 1, Limit: math.MaxInt}, true},
		{"last addressable page", PaginationParams{Page: math.MaxInt / 2, Limit: 2}, true},
		{"offset overflows", PaginationParams{Page: 1<<62 + 1, Limit: 2}, false},
		{"end overflows", PaginationParams{Page: 2, Limit: math.MaxInt}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.InRange())
		})
	}
}

func TestPaginationParams_OffsetSaturates(t *testing.T) {
	assert.Equal(t, math.MaxInt, PaginationParams{Page: 1<<62 + 1, Limit: 2}.Offset())
	assert.Equal(t, math.MaxInt-3, PaginationParams{Page: math.MaxInt / 2, Limit: 2}.Offset())
}

func TestPaginate_ExtremeParams(t *testing.T) {
	all := []int{1, 2, 3}

	res := Paginate(all, PaginationParams{Page: 1, Limit: math.MaxInt})
	assert.Equal(t, []int{1, 2, 3}, res.Data)
	assert.Equal(t, 1, res.TotalPages)

	res = Paginate(all, PaginationParams{Page: 1<<62 + 1, Limit: 2})
	assert.Empty(t, res.Data)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.TotalPages)

	res = Paginate(all, PaginationParams{Page: 2, Limit: math.MaxInt - 1})
	assert.Empty(t, res.Data)
}
