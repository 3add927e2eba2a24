package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todolist/internal/model"
)

// Version is the application version.
const Version = "1.0.0"

// ItemService is the list service the handlers translate requests into.
type ItemService interface {
	ListItems(ctx context.Context, q model.ListQuery) (model.ListResult, error)
	AllItems(ctx context.Context) ([]model.Item, error)
	CreateItem(ctx context.Context, text string) (*model.Item, error)
	UpdateItem(ctx context.Context, id, text string) (*model.Item, error)
	DeleteItem(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// RESTHandler handles REST API requests for items.
type RESTHandler struct {
	service        ItemService
	logger         *zap.Logger
	defaultPerPage int
}

// NewRESTHandler creates a new RESTHandler instance. defaultPerPage is used
// when a list request carries no usable perPage parameter.
func NewRESTHandler(svc ItemService, logger *zap.Logger, defaultPerPage int) *RESTHandler {
	if defaultPerPage <= 0 {
		defaultPerPage = model.DefaultPerPage
	}
	return &RESTHandler{
		service:        svc,
		logger:         logger,
		defaultPerPage: defaultPerPage,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)
	router.HandleFunc("/get", h.GetItems).Methods(http.MethodGet)
	router.HandleFunc("/search", h.SearchItems).Methods(http.MethodGet)
	router.HandleFunc("/todos", h.AllItems).Methods(http.MethodGet)
	router.HandleFunc("/add", h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/update/{id}", h.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/delete/{id}", h.DeleteItem).Methods(http.MethodDelete)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: Version,
	})
}

// ReadyCheck handles GET /ready requests. It reports unavailable while the
// store cannot be reached.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Warn("store not ready", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "unavailable"})
		return
	}
	h.writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
}

// GetItems handles GET /get requests: the unfiltered paginated list.
func (h *RESTHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	q := h.parseListQuery(r)
	q.Q = ""
	h.list(w, r, q)
}

// SearchItems handles GET /search requests.
func (h *RESTHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.parseListQuery(r))
}

func (h *RESTHandler) list(w http.ResponseWriter, r *http.Request, q model.ListQuery) {
	res, err := h.service.ListItems(r.Context(), q)
	if err != nil {
		h.handleError(w, err, "list items")
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// AllItems handles GET /todos requests: every item, unpaginated.
func (h *RESTHandler) AllItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.AllItems(r.Context())
	if err != nil {
		h.handleError(w, err, "list all items")
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

// CreateItem handles POST /add requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var input model.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.service.CreateItem(r.Context(), input.Value())
	if err != nil {
		h.handleError(w, err, "create item")
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

// UpdateItem handles PUT /update/{id} requests. An unknown id answers 200
// with a null body.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var input model.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.service.UpdateItem(r.Context(), id, input.Value())
	if err != nil {
		h.handleError(w, err, "update item")
		return
	}

	if item == nil {
		h.writeJSON(w, http.StatusOK, json.RawMessage("null"))
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /delete/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		h.handleError(w, err, "delete item")
		return
	}

	h.writeJSON(w, http.StatusOK, model.DeleteResponse{Success: true})
}

// parseListQuery reads q, page and perPage. page falls back to 1 when
// missing, non-numeric or below 1; perPage falls back to the default when
// missing, non-numeric or negative, and 0 disables pagination.
func (h *RESTHandler) parseListQuery(r *http.Request) model.ListQuery {
	values := r.URL.Query()

	q := model.ListQuery{
		Q:       values.Get("q"),
		Page:    model.DefaultPage,
		PerPage: h.defaultPerPage,
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page >= 1 {
		q.Page = page
	}

	if perPage, err := strconv.Atoi(values.Get("perPage")); err == nil && perPage >= 0 {
		q.PerPage = perPage
	}

	return q
}

// handleError maps service errors to HTTP responses. Validation failures
// are client errors; everything else is a store error.
func (h *RESTHandler) handleError(w http.ResponseWriter, err error, operation string) {
	if errors.Is(err, model.ErrEmptyText) {
		h.logger.Warn("validation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, err.Error())
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.ErrorResponse{Error: message})
}
