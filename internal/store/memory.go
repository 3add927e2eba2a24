package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/vyrodovalexey/todolist/internal/model"
)

// MemoryStore implements Store interface with in-memory storage.
type MemoryStore struct {
	mu     sync.RWMutex
	order  []string
	items  map[string]model.Item
	closed bool
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]model.Item),
	}
}

// Find returns the matching items in insertion order.
func (s *MemoryStore) Find(ctx context.Context, filter Filter, w Window) ([]model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("find items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("find items: %w", ErrClosed)
	}

	matched := make([]model.Item, 0, len(s.order))
	for _, id := range s.order {
		item := s.items[id]
		if filter.Match(item.Text) {
			matched = append(matched, item)
		}
	}

	return window(matched, w), nil
}

// Count returns the number of matching items.
func (s *MemoryStore) Count(ctx context.Context, filter Filter) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("count items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("count items: %w", ErrClosed)
	}

	var n int64
	for _, id := range s.order {
		if filter.Match(s.items[id].Text) {
			n++
		}
	}

	return n, nil
}

// Insert adds a new item to the store and returns it with its generated ID.
func (s *MemoryStore) Insert(ctx context.Context, text string) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("insert item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("insert item: %w", ErrClosed)
	}

	item := model.Item{
		ID:   newID(),
		Text: text,
	}
	s.items[item.ID] = item
	s.order = append(s.order, item.ID)

	return &item, nil
}

// UpdateByID replaces the text of an existing item.
func (s *MemoryStore) UpdateByID(ctx context.Context, id, text string) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update item: %w", ctx.Err())
	default:
	}

	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("update item: %w", ErrClosed)
	}

	item, exists := s.items[id]
	if !exists {
		return nil, nil
	}

	item.Text = text
	s.items[id] = item

	return &item, nil
}

// DeleteByID removes an item from the store by its ID.
func (s *MemoryStore) DeleteByID(ctx context.Context, id string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete item: %w", ctx.Err())
	default:
	}

	if err := validateID(id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("delete item: %w", ErrClosed)
	}

	if _, exists := s.items[id]; !exists {
		return nil
	}

	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return nil
}

// Ping reports whether the store is still open.
func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the store closed; later operations fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
