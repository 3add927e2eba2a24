// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"math"
	"strings"
)

// Validation errors for Item.
var (
	ErrEmptyText = errors.New("text cannot be empty")
)

// Pagination defaults.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// Item is a single to-do entry. ID is assigned by the store on creation
// and never changes; Text is the only mutable field.
type Item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ItemInput is the request body for creating or updating an item.
// A missing "text" key decodes to a nil Text.
type ItemInput struct {
	Text *string `json:"text"`
}

// Value returns the submitted text, or the empty string when absent.
func (in ItemInput) Value() string {
	if in.Text == nil {
		return ""
	}
	return *in.Text
}

// ValidateText reports whether text is acceptable for storage.
// Text that trims to empty is rejected; the text itself is stored untrimmed.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return nil
}

// ListQuery describes a filtered, paginated list request.
type ListQuery struct {
	Q       string
	Page    int
	PerPage int
}

// Normalize applies the pagination defaults: page is clamped to at least 1
// and a negative per-page falls back to DefaultPerPage. PerPage 0 is kept
// and means "no pagination".
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PerPage < 0 {
		q.PerPage = DefaultPerPage
	}
	return q
}

// Paginated reports whether the query limits its result to one page.
func (q ListQuery) Paginated() bool {
	return q.PerPage > 0
}

// Skip returns the number of matching items preceding the requested page.
// It saturates at math.MaxInt, so a page far past the end stays empty.
func (q ListQuery) Skip() int {
	if !q.Paginated() || q.Page < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PerPage {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PerPage
}

// ListResult is one page of items plus the number of items matching the
// filter across all pages.
type ListResult struct {
	Items []Item `json:"items"`
	Total int64  `json:"total"`
}

// TotalPages returns the page count for total items at perPage per page.
// An unpaginated list (perPage 0) always has exactly one page.
func TotalPages(total int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	if total <= 0 {
		return 1
	}
	pages := total / int64(perPage)
	if total%int64(perPage) != 0 {
		pages++
	}
	if pages > math.MaxInt {
		return math.MaxInt
	}
	return int(pages)
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DeleteResponse is returned by a successful delete.
type DeleteResponse struct {
	Success bool `json:"success"`
}
