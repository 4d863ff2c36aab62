package handler

import (
	"net/http"

	"github.com/bathtrack/bathtrack-backend/internal/product/repository"
	"github.com/bathtrack/bathtrack-backend/internal/product/service"
	"github.com/bathtrack/bathtrack-backend/pkg/httputil"
	"github.com/bathtrack/bathtrack-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// ShoppingListHandler handles shopping list endpoints
type ShoppingListHandler struct {
	service *service.ProductService
	logger  *logger.Logger
}

// NewShoppingListHandler creates a new shopping list handler
func NewShoppingListHandler(svc *service.ProductService, log *logger.Logger) *ShoppingListHandler {
	return &ShoppingListHandler{
		service: svc,
		logger:  log,
	}
}

type addShoppingListItemRequest struct {
	Name      string  `json:"name" validate:"required,max=100"`
	ProductID *string `json:"product_id" validate:"omitempty,uuid"`
	Category  *string `json:"category" validate:"omitempty,oneof=toothbrush shampoo conditioner cleanser body-wash towel razor-head shower-ball shower-filter other"`
}

type checkShoppingListItemRequest struct {
	Checked bool `json:"checked"`
}

// List lists the caller's shopping list
func (h *ShoppingListHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListShoppingList(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Add adds an item to the shopping list. Adding a product that already has
// an unchecked entry is a no-op.
func (h *ShoppingListHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addShoppingListItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	item := &repository.ShoppingListItem{
		Name:      req.Name,
		ProductID: req.ProductID,
		Category:  req.Category,
	}

	item, created, err := h.service.AddShoppingListItem(r.Context(), item)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if !created {
		httputil.JSON(w, http.StatusOK, item)
		return
	}

	httputil.Created(w, item)
}

// Check marks an item checked or unchecked
func (h *ShoppingListHandler) Check(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req checkShoppingListItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.CheckShoppingListItem(r.Context(), id, req.Checked); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Remove removes an item from the shopping list
func (h *ShoppingListHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.RemoveShoppingListItem(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
