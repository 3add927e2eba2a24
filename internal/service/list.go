// Package service implements the list-retrieval contract on top of an item
// store: filtered pagination with an independent total, and single-item
// create, update and delete.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/todolist/internal/model"
	"github.com/vyrodovalexey/todolist/internal/store"
)

// ErrStore is the single failure kind surfaced for any store problem:
// connectivity, query failure or a malformed identifier.
var ErrStore = errors.New("store error")

// storeError wraps a store failure so that errors.Is(err, ErrStore) holds
// while Error() still carries the underlying message.
type storeError struct {
	op  string
	err error
}

func (e *storeError) Error() string { return e.op + ": " + e.err.Error() }

func (e *storeError) Unwrap() []error { return []error{ErrStore, e.err} }

func wrapStore(op string, err error) error {
	return &storeError{op: op, err: err}
}

// Options tunes the service.
type Options struct {
	// StrictText rejects text that trims to empty on create and update.
	StrictText bool
}

// ListService is stateless; the store handle is its only dependency.
type ListService struct {
	store  store.Store
	logger *zap.Logger
	opts   Options
}

// New creates a ListService over s.
func New(s store.Store, logger *zap.Logger, opts Options) *ListService {
	return &ListService{
		store:  s,
		logger: logger,
		opts:   opts,
	}
}

// ListItems returns one page of items matching q.Q together with the total
// number of matches. PerPage 0 returns every match.
func (s *ListService) ListItems(ctx context.Context, q model.ListQuery) (model.ListResult, error) {
	q = q.Normalize()
	filter := store.Filter{Text: q.Q}

	if !q.Paginated() {
		items, err := s.store.Find(ctx, filter, store.Window{})
		if err != nil {
			return model.ListResult{}, wrapStore("list items", err)
		}
		s.logger.Debug("listed items",
			zap.String("q", q.Q),
			zap.Int("returned", len(items)),
		)
		return model.ListResult{Items: items, Total: int64(len(items))}, nil
	}

	items, err := s.store.Find(ctx, filter, store.Window{Skip: q.Skip(), Limit: q.PerPage})
	if err != nil {
		return model.ListResult{}, wrapStore("list items", err)
	}

	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return model.ListResult{}, wrapStore("count items", err)
	}

	s.logger.Debug("listed items",
		zap.String("q", q.Q),
		zap.Int("page", q.Page),
		zap.Int("per_page", q.PerPage),
		zap.Int("returned", len(items)),
		zap.Int64("total", total),
	)

	return model.ListResult{Items: items, Total: total}, nil
}

// AllItems returns every item, unfiltered and unpaginated.
func (s *ListService) AllItems(ctx context.Context) ([]model.Item, error) {
	items, err := s.store.Find(ctx, store.Filter{}, store.Window{})
	if err != nil {
		return nil, wrapStore("list all items", err)
	}
	return items, nil
}

// CreateItem stores text as a new item.
func (s *ListService) CreateItem(ctx context.Context, text string) (*model.Item, error) {
	if err := s.validate(text); err != nil {
		return nil, err
	}

	item, err := s.store.Insert(ctx, text)
	if err != nil {
		return nil, wrapStore("create item", err)
	}

	s.logger.Info("item created", zap.String("id", item.ID))
	return item, nil
}

// UpdateItem replaces the text of item id. A missing id yields nil, nil.
func (s *ListService) UpdateItem(ctx context.Context, id, text string) (*model.Item, error) {
	if err := s.validate(text); err != nil {
		return nil, err
	}

	item, err := s.store.UpdateByID(ctx, id, text)
	if err != nil {
		return nil, wrapStore("update item", err)
	}

	if item == nil {
		s.logger.Debug("update of missing item", zap.String("id", id))
		return nil, nil
	}

	s.logger.Info("item updated", zap.String("id", id))
	return item, nil
}

// DeleteItem removes item id. Removing a missing id succeeds.
func (s *ListService) DeleteItem(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return wrapStore("delete item", err)
	}

	s.logger.Info("item deleted", zap.String("id", id))
	return nil
}

// Ping checks the store connection.
func (s *ListService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}

func (s *ListService) validate(text string) error {
	if !s.opts.StrictText {
		return nil
	}
	return model.ValidateText(text)
}
