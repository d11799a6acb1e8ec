// Package pagination holds the fixed page arithmetic shared by every list view.
package pagination

import (
	"strconv"
	"strings"
)

// PageSize is the number of rows on every list page.
const PageSize = 6

// Normalize parses a page query value. Missing, non-numeric and
// non-positive values yield page 1.
func Normalize(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// Offset is the row offset of page.
func Offset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * PageSize
}

// TotalPages is ceil(count / PageSize); zero rows give zero pages.
func TotalPages(count int64) int {
	if count <= 0 {
		return 0
	}
	return int((count + PageSize - 1) / PageSize)
}

// Page is the envelope of a paginated response.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPage wraps items of page with the computed page count.
func NewPage[T any](items []T, page int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   PageSize,
		Total:      total,
		TotalPages: TotalPages(total),
	}
}
