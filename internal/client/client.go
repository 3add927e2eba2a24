// Package client is a typed HTTP client for the todo list API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/todolist/internal/model"
)

// requestIDHeader matches the header the server propagates.
const requestIDHeader = "X-Request-ID"

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error: %d: %s", e.Status, e.Message)
}

// Client talks to a todo list server.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client for the server at baseURL. A zero timeout means
// requests are bounded only by their context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the server address the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches one page of the unfiltered list. perPage 0 fetches all.
func (c *Client) List(ctx context.Context, page, perPage int) (model.ListResult, error) {
	var res model.ListResult
	err := c.do(ctx, http.MethodGet, "/get?"+pageQuery("", page, perPage).Encode(), nil, &res)
	return res, err
}

// Search fetches one page of items whose text contains q, ignoring case.
func (c *Client) Search(ctx context.Context, q string, page, perPage int) (model.ListResult, error) {
	var res model.ListResult
	err := c.do(ctx, http.MethodGet, "/search?"+pageQuery(q, page, perPage).Encode(), nil, &res)
	return res, err
}

// All fetches every item.
func (c *Client) All(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := c.do(ctx, http.MethodGet, "/todos", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Create adds an item with the given text.
func (c *Client) Create(ctx context.Context, text string) (*model.Item, error) {
	var item model.Item
	if err := c.do(ctx, http.MethodPost, "/add", textBody(text), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update replaces the text of item id. It returns nil without error when
// the server no longer has the item.
func (c *Client) Update(ctx context.Context, id, text string) (*model.Item, error) {
	var item *model.Item
	if err := c.do(ctx, http.MethodPut, "/update/"+url.PathEscape(id), textBody(text), &item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes item id. Deleting a missing item succeeds.
func (c *Client) Delete(ctx context.Context, id string) error {
	var res model.DeleteResponse
	return c.do(ctx, http.MethodDelete, "/delete/"+url.PathEscape(id), nil, &res)
}

// Ping checks that the server is ready to serve requests.
func (c *Client) Ping(ctx context.Context) error {
	var res struct {
		Status string `json:"status"`
	}
	return c.do(ctx, http.MethodGet, "/ready", nil, &res)
}

func pageQuery(q string, page, perPage int) url.Values {
	values := url.Values{}
	if q != "" {
		values.Set("q", q)
	}
	values.Set("page", strconv.Itoa(page))
	values.Set("perPage", strconv.Itoa(perPage))
	return values
}

func textBody(text string) any {
	return model.ItemInput{Text: &text}
}

// do sends one request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody model.ErrorResponse
		if json.Unmarshal(raw, &errBody) == nil {
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
