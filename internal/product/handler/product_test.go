package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bathtrack/bathtrack-backend/internal/product/repository"
	"github.com/bathtrack/bathtrack-backend/internal/product/service"
	"github.com/bathtrack/bathtrack-backend/pkg/database"
	"github.com/bathtrack/bathtrack-backend/pkg/httputil"
	"github.com/bathtrack/bathtrack-backend/pkg/logger"
	"github.com/bathtrack/bathtrack-backend/pkg/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

func setupRouter(t *testing.T) (http.Handler, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("test", "test")
	db := &database.DB{DB: mockDB.DB}
	svc := service.NewProductService(
		repository.NewProductRepository(db),
		repository.NewShoppingListRepository(db),
		nil,
		map[string]int{"shampoo": 3, "toothbrush": 1},
		6,
		log,
	)
	h := NewProductHandler(svc, log)

	r := chi.NewRouter()
	r.Use(httputil.UserMiddleware)
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/replace", h.Replace)
		})
	})

	return r, mockDB
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", testUserID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProductHandler_Create(t *testing.T) {
	router, mockDB := setupRouter(t)

	now := time.Now()
	registration := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	mockDB.Mock.ExpectQuery(`INSERT INTO products`).
		WithArgs(
			testutil.AnyUUID{}, testUserID, "Morning Shampoo", "shampoo",
			registration, registration.AddDate(0, 3, 0),
			nil, nil, nil, 1, nil,
		).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/products", `{
		"name": "Morning Shampoo",
		"category": "shampoo",
		"registration_date": "2024-01-01"
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Name          string `json:"name"`
			ExpiryDate    string `json:"expiry_date"`
			DaysRemaining int    `json:"days_remaining"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Morning Shampoo", resp.Data.Name)
	assert.Equal(t, "2024-04-01T00:00:00Z", resp.Data.ExpiryDate)

	mockDB.ExpectationsWereMet(t)
}

func TestProductHandler_Create_ExplicitZeroStock(t *testing.T) {
	router, mockDB := setupRouter(t)

	now := time.Now()
	registration := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	// An explicit 0 means no spare units; it must not be bumped to the
	// absent-field default of 1.
	mockDB.Mock.ExpectQuery(`INSERT INTO products`).
		WithArgs(
			testutil.AnyUUID{}, testUserID, "Last Razor Head", "razor-head",
			registration, registration.AddDate(0, 6, 0),
			nil, nil, nil, 0, nil,
		).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/products", `{
		"name": "Last Razor Head",
		"category": "razor-head",
		"registration_date": "2024-01-01",
		"stock": 0
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Stock int `json:"stock"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Data.Stock)

	mockDB.ExpectationsWereMet(t)
}

func TestProductHandler_Create_UnknownCategory(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/products", `{
		"name": "Mystery",
		"category": "appliance",
		"registration_date": "2024-01-01"
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "category")
}

func TestProductHandler_Create_BadRegistrationDate(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/products", `{
		"name": "Shampoo",
		"category": "shampoo",
		"registration_date": "yesterday"
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "registration_date")
}

func TestProductHandler_Replace_NoStock(t *testing.T) {
	router, mockDB := setupRouter(t)

	now := time.Now().UTC()
	mockDB.Mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND user_id = \$2`).
		WithArgs("p1", testUserID).
		WillReturnRows(testutil.MockRows(
			"id", "user_id", "name", "category", "registration_date", "expiry_date",
			"manufacturing_date", "expiry_period_before_opening", "period_after_opening",
			"stock", "memo", "created_at", "updated_at",
		).AddRow(
			"p1", testUserID, "Shampoo", "shampoo", now.AddDate(0, -3, 0), now.AddDate(0, 1, 0),
			nil, nil, nil, 0, nil, now, now,
		))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/products/p1/replace", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "INSUFFICIENT_STOCK")
}

func TestProductHandler_Get_NotFound(t *testing.T) {
	router, mockDB := setupRouter(t)

	mockDB.Mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND user_id = \$2`).
		WithArgs("missing", testUserID).
		WillReturnError(sql.ErrNoRows)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/products/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserMiddleware_MissingHeader(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing user context")
}
