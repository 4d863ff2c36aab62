package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bathtrack/bathtrack-backend/internal/product/expiry"
	"github.com/bathtrack/bathtrack-backend/internal/product/repository"
	"github.com/bathtrack/bathtrack-backend/internal/product/service"
	"github.com/bathtrack/bathtrack-backend/pkg/httputil"
	"github.com/bathtrack/bathtrack-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	service *service.ProductService
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(svc *service.ProductService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  log,
	}
}

// productRequest is the write payload for products. There is deliberately
// no expiry_date field: the expiry date is derived by the service and a
// client can never set it directly.
type productRequest struct {
	Name                      string  `json:"name" validate:"required,max=100"`
	Category                  string  `json:"category" validate:"required,oneof=toothbrush shampoo conditioner cleanser body-wash towel razor-head shower-ball shower-filter other"`
	RegistrationDate          string  `json:"registration_date" validate:"required"`
	ManufacturingDate         string  `json:"manufacturing_date"`
	ExpiryPeriodBeforeOpening *int    `json:"expiry_period_before_opening" validate:"omitempty,min=1,max=120"`
	PeriodAfterOpening        *int    `json:"period_after_opening" validate:"omitempty,min=1,max=120"`
	Stock                     *int    `json:"stock" validate:"omitempty,min=0,max=50"`
	Memo                      *string `json:"memo" validate:"omitempty,max=500"`
}

// toProduct converts the request into a product record. The registration
// date is required and parsed strictly; the manufacturing date is
// best-effort and degrades to absent when unparseable.
func (req *productRequest) toProduct() (*repository.Product, error) {
	registrationDate, err := expiry.ParseRegistrationDate(req.RegistrationDate)
	if err != nil {
		return nil, err
	}

	product := &repository.Product{
		Name:                      req.Name,
		Category:                  req.Category,
		RegistrationDate:          registrationDate,
		ManufacturingDate:         expiry.ParseManufacturingDate(req.ManufacturingDate),
		ExpiryPeriodBeforeOpening: req.ExpiryPeriodBeforeOpening,
		PeriodAfterOpening:        req.PeriodAfterOpening,
		Memo:                      req.Memo,
	}
	// Absent stock defaults to a single unit in use. An explicit 0 is a
	// valid value (no spare units) and is stored as sent.
	if req.Stock != nil {
		product.Stock = *req.Stock
	} else {
		product.Stock = 1
	}

	return product, nil
}

// List lists the caller's products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	category := r.URL.Query().Get("category")

	products, total, err := h.service.ListProducts(r.Context(), page, perPage, category)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, products, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Get gets a product by ID
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Create registers a new product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := req.toProduct()
	if err != nil {
		httputil.Error(w, err)
		return
	}

	created, err := h.service.CreateProduct(r.Context(), product)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, created)
}

// Update updates a product. The expiry date is recomputed from the new
// field values.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req productRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	existing, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := req.toProduct()
	if err != nil {
		httputil.Error(w, err)
		return
	}
	product.ID = id
	product.UserID = existing.UserID
	if req.Stock == nil {
		product.Stock = existing.Stock
	}

	changed := changedFields(existing.Product, product)

	updated, err := h.service.UpdateProduct(r.Context(), product, changed)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, updated)
}

// Delete deletes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Replace marks a product as replaced, consuming one unit of stock
func (h *ProductHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.ReplaceProduct(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// changedFields reports which writable fields differ between the stored
// and the incoming product.
func changedFields(old, new *repository.Product) map[string]any {
	changed := make(map[string]any)

	if old.Name != new.Name {
		changed["name"] = new.Name
	}
	if old.Category != new.Category {
		changed["category"] = new.Category
	}
	if !old.RegistrationDate.Equal(new.RegistrationDate) {
		changed["registration_date"] = new.RegistrationDate
	}
	if old.Stock != new.Stock {
		changed["stock"] = new.Stock
	}
	if !equalTimePtr(old.ManufacturingDate, new.ManufacturingDate) {
		changed["manufacturing_date"] = new.ManufacturingDate
	}
	if !equalIntPtr(old.ExpiryPeriodBeforeOpening, new.ExpiryPeriodBeforeOpening) {
		changed["expiry_period_before_opening"] = new.ExpiryPeriodBeforeOpening
	}
	if !equalIntPtr(old.PeriodAfterOpening, new.PeriodAfterOpening) {
		changed["period_after_opening"] = new.PeriodAfterOpening
	}

	return changed
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
