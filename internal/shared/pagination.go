package shared

import "math"

// DefaultPageSize is applied when a listing request omits the limit.
const DefaultPageSize = 10

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination computes pagination metadata. Page is 1-based.
func NewPagination(page, limit, total int) Pagination {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	pages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Offset returns the row offset for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
