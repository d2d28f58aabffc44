package store

import "fmt"

// Page is one slice of a larger result set.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Paginate slices items into a 1-indexed page, clipped to bounds. A page
// past the end yields an empty item list with the correct totals.
func Paginate[T any](items []T, page, pageSize int) (Page[T], error) {
	if page < 1 {
		return Page[T]{}, fmt.Errorf("%w: page must be >= 1", ErrInvalidQuery)
	}
	if pageSize <= 0 {
		return Page[T]{}, fmt.Errorf("%w: page size must be > 0", ErrInvalidQuery)
	}

	total := len(items)
	pages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return Page[T]{
		Items:    items[start:end],
		Total:    total,
		Pages:    pages,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
