package models

// Pagination defaults
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a window of a listing; Page is 1-based
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page to sane bounds
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// PageResult is a page of items together with the total row count
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPageResult builds the listing envelope
func NewPageResult[T any](data []T, total int, p Page) PageResult[T] {
	p = p.Normalize()
	if data == nil {
		data = []T{}
	}
	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: (total + p.Limit - 1) / p.Limit,
	}
}
