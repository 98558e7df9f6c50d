package model

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one window of a paginated listing.
type Page[T any] struct {
	Items    []T
	Page     int
	PageSize int
	Total    int64
}

// Pagination selects a 1-based page.
type Pagination struct {
	Page     int
	PageSize int
}

// Normalize applies defaults and caps.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// WithdrawalFilter narrows withdrawal listings. Nil fields are not applied.
type WithdrawalFilter struct {
	RequesterID *string
	Status      *WithdrawalStatus
	Archived    *bool
	Pagination
}
