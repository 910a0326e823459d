package shared

import "time"

// Filter represents list query options shared by every entity
type Filter struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time

	// EndDateIsDay marks EndDate as a calendar day, so the whole day is included.
	EndDateIsDay bool
	Equals       map[string]string

	// IncludeInactive lists soft-deleted rows as well.
	IncludeInactive bool
}

// Offset returns the row offset for Page and Limit
func (f Filter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, limit int) Paginated[T] {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	if items == nil {
		items = []T{}
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
