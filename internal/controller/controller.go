// Package controller keeps a paginated, filtered client view of the todo
// list consistent with the server.
//
// Items and total are only ever replaced wholesale by Refresh; actions
// adjust the query (search text, page, page size) and then refresh. Every
// refresh carries a sequence number and a response older than the last one
// applied is dropped, so overlapping fetches cannot regress the view.
package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/todolist/internal/model"
)

// ItemService is the remote list API used by the controller.
type ItemService interface {
	Search(ctx context.Context, q string, page, perPage int) (model.ListResult, error)
	Create(ctx context.Context, text string) (*model.Item, error)
	Update(ctx context.Context, id, text string) (*model.Item, error)
	Delete(ctx context.Context, id string) error
}

// State is a point-in-time copy of the controller's view.
type State struct {
	SearchText string
	Page       int
	PageSize   int
	Items      []model.Item
	Total      int64
}

// TotalPages returns the number of pages for the state's total and page
// size. An unpaginated view has one page.
func (s State) TotalPages() int {
	return model.TotalPages(s.Total, s.PageSize)
}

// Controller is safe for concurrent use.
type Controller struct {
	svc    ItemService
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	issued  uint64
	applied uint64
}

// New creates a controller on page 1 with the given page size. A negative
// page size is treated as 0, which disables pagination.
func New(svc ItemService, logger *zap.Logger, pageSize int) *Controller {
	if pageSize < 0 {
		pageSize = 0
	}
	return &Controller{
		svc:    svc,
		logger: logger,
		state: State{
			Page:     model.DefaultPage,
			PageSize: pageSize,
			Items:    []model.Item{},
		},
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Items = append([]model.Item(nil), c.state.Items...)
	return s
}

// TotalPages returns the page count of the current view.
func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.TotalPages()
}

// Refresh fetches the current query and replaces items and total with the
// response. On error the previous items and total are kept.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	q, page, perPage := c.state.SearchText, c.state.Page, c.state.PageSize
	c.mu.Unlock()

	res, err := c.svc.Search(ctx, q, page, perPage)
	if err != nil {
		c.logger.Error("refresh failed",
			zap.String("q", q),
			zap.Int("page", page),
			zap.Int("per_page", perPage),
			zap.Error(err),
		)
		return fmt.Errorf("refresh list: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.applied {
		c.logger.Debug("dropping stale list response",
			zap.Uint64("seq", seq),
			zap.Uint64("applied", c.applied),
		)
		return nil
	}
	c.applied = seq

	items := res.Items
	if items == nil {
		items = []model.Item{}
	}
	c.state.Items = items
	c.state.Total = res.Total
	return nil
}

// SetSearch filters the view by text, trimmed, and returns to page 1.
func (c *Controller) SetSearch(ctx context.Context, text string) error {
	c.mu.Lock()
	c.state.SearchText = strings.TrimSpace(text)
	c.state.Page = model.DefaultPage
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// SetPageSize changes the page size and returns to page 1. Zero disables
// pagination; negative sizes are treated as zero.
func (c *Controller) SetPageSize(ctx context.Context, n int) error {
	if n < 0 {
		n = 0
	}

	c.mu.Lock()
	c.state.PageSize = n
	c.state.Page = model.DefaultPage
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// SetPage moves to page p, clamped into [1, TotalPages].
func (c *Controller) SetPage(ctx context.Context, p int) error {
	c.mu.Lock()
	c.state.Page = clamp(p, 1, c.state.TotalPages())
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// NextPage moves one page forward.
func (c *Controller) NextPage(ctx context.Context) error {
	c.mu.Lock()
	p := c.state.Page + 1
	c.mu.Unlock()
	return c.SetPage(ctx, p)
}

// PrevPage moves one page back.
func (c *Controller) PrevPage(ctx context.Context) error {
	c.mu.Lock()
	p := c.state.Page - 1
	c.mu.Unlock()
	return c.SetPage(ctx, p)
}

// Add creates an item and refreshes the current view. Text that trims to
// empty is ignored and no request is sent.
func (c *Controller) Add(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if _, err := c.svc.Create(ctx, text); err != nil {
		c.logger.Error("create failed", zap.Error(err))
		return fmt.Errorf("add item: %w", err)
	}

	return c.Refresh(ctx)
}

// Remove deletes item id. The page is then pulled back so that removing the
// last item of the last page does not leave the view on an empty page.
func (c *Controller) Remove(ctx context.Context, id string) error {
	if err := c.svc.Delete(ctx, id); err != nil {
		c.logger.Error("delete failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("remove item: %w", err)
	}

	c.mu.Lock()
	remaining := c.state.Total - 1
	if remaining < 0 {
		remaining = 0
	}
	if last := model.TotalPages(remaining, c.state.PageSize); c.state.Page > last {
		c.state.Page = last
	}
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// Save writes newText to item id and refreshes. Text that trims to empty,
// or text identical to originalText, cancels the edit without a request.
// It reports whether a write happened.
func (c *Controller) Save(ctx context.Context, id, newText, originalText string) (bool, error) {
	if strings.TrimSpace(newText) == "" || newText == originalText {
		return false, nil
	}

	if _, err := c.svc.Update(ctx, id, newText); err != nil {
		c.logger.Error("update failed", zap.String("id", id), zap.Error(err))
		return false, fmt.Errorf("save item: %w", err)
	}

	return true, c.Refresh(ctx)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
