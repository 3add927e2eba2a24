// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/todolist/internal/model"
)

// Store errors.
var (
	ErrInvalidID = errors.New("invalid item ID")
	ErrClosed    = errors.New("store is closed")
)

// Filter selects items whose text contains Text, ignoring case.
// An empty Text matches every item.
type Filter struct {
	Text string
}

// Match reports whether text satisfies the filter.
func (f Filter) Match(text string) bool {
	if f.Text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(f.Text))
}

// Window bounds a Find result. Limit 0 means no limit.
type Window struct {
	Skip  int
	Limit int
}

// Store defines the interface for item storage operations.
// Items are returned in insertion order.
type Store interface {
	// Find returns the items matching filter inside the window.
	Find(ctx context.Context, filter Filter, window Window) ([]model.Item, error)

	// Count returns the number of items matching filter.
	Count(ctx context.Context, filter Filter) (int64, error)

	// Insert stores a new item with a generated ID.
	Insert(ctx context.Context, text string) (*model.Item, error)

	// UpdateByID replaces the text of an item. It returns nil and no error
	// when no item has the given ID.
	UpdateByID(ctx context.Context, id, text string) (*model.Item, error)

	// DeleteByID removes an item. Deleting a missing ID is not an error.
	DeleteByID(ctx context.Context, id string) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// newID generates an item identifier.
func newID() string {
	return uuid.NewString()
}

// validateID rejects identifiers that no backend could have generated.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// window applies skip and limit to an already filtered slice.
// A negative skip counts as 0.
func window(items []model.Item, w Window) []model.Item {
	if w.Skip >= len(items) {
		return []model.Item{}
	}
	if w.Skip > 0 {
		items = items[w.Skip:]
	}
	if w.Limit > 0 && w.Limit < len(items) {
		items = items[:w.Limit]
	}
	return items
}
