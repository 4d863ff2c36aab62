package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/bathtrack/bathtrack-backend/internal/product/repository"
	"github.com/bathtrack/bathtrack-backend/pkg/database"
	"github.com/bathtrack/bathtrack-backend/pkg/errors"
	"github.com/bathtrack/bathtrack-backend/pkg/logger"
	"github.com/bathtrack/bathtrack-backend/pkg/testutil"
	"github.com/bathtrack/bathtrack-backend/pkg/userctx"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

var testCategoryDefaults = map[string]int{
	"toothbrush": 1,
	"shampoo":    3,
	"other":      6,
}

func setupProductService(t *testing.T) (*ProductService, *testutil.MockDB, context.Context) {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	db := &database.DB{DB: mockDB.DB}
	svc := NewProductService(
		repository.NewProductRepository(db),
		repository.NewShoppingListRepository(db),
		nil, // events disabled in unit tests
		testCategoryDefaults, 6,
		logger.New("test", "test"),
	)

	ctx := userctx.WithUserID(context.Background(), testUserID)
	return svc, mockDB, ctx
}

func TestProductService_CreateProduct_DerivesExpiry(t *testing.T) {
	svc, mockDB, ctx := setupProductService(t)

	registration := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mockDB.Mock.ExpectQuery(`INSERT INTO products`).
		WithArgs(
			testutil.AnyUUID{}, testUserID, "Shampoo", "shampoo",
			registration,
			// category default for shampoo is 3 months
			registration.AddDate(0, 3, 0),
			nil, nil, nil, 1, nil,
		).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	created, err := svc.CreateProduct(ctx, &repository.Product{
		Name:             "Shampoo",
		Category:         "shampoo",
		RegistrationDate: registration,
		Stock:            1,
	})
	require.NoError(t, err)

	assert.Equal(t, registration.AddDate(0, 3, 0), created.ExpiryDate)

	mockDB.ExpectationsWereMet(t)
}

func TestProductService_CreateProduct_EarliestDateWins(t *testing.T) {
	svc, mockDB, ctx := setupProductService(t)

	registration := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	manufacturing := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	beforeMonths := 6
	afterMonths := 12
	now := time.Now()

	// Pre-opening limit 2023-12-01 beats post-opening limit 2025-01-01
	wantExpiry := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)

	mockDB.Mock.ExpectQuery(`INSERT INTO products`).
		WithArgs(
			testutil.AnyUUID{}, testUserID, "Sunscreen", "other",
			registration, wantExpiry,
			manufacturing, beforeMonths, afterMonths, 1, nil,
		).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	created, err := svc.CreateProduct(ctx, &repository.Product{
		Name:                      "Sunscreen",
		Category:                  "other",
		RegistrationDate:          registration,
		ManufacturingDate:         &manufacturing,
		ExpiryPeriodBeforeOpening: &beforeMonths,
		PeriodAfterOpening:        &afterMonths,
		Stock:                     1,
	})
	require.NoError(t, err)
	assert.Equal(t, wantExpiry, created.ExpiryDate)
}

func TestProductService_ReplaceProduct_NoStock(t *testing.T) {
	svc, mockDB, ctx := setupProductService(t)

	p := storedProduct("p1", 0)
	expectGetProduct(mockDB, p)

	// No UPDATE is expected: the transition is rejected before any write
	_, err := svc.ReplaceProduct(ctx, "p1")
	assert.ErrorIs(t, err, errors.ErrInsufficientStock)

	mockDB.ExpectationsWereMet(t)
}

func TestProductService_ReplaceProduct(t *testing.T) {
	svc, mockDB, ctx := setupProductService(t)

	p := storedProduct("p1", 2)
	expectGetProduct(mockDB, p)

	updated := *p
	updated.Stock = 1
	mockDB.Mock.ExpectQuery(`UPDATE products SET\s+stock = stock - 1`).
		WithArgs("p1", testUserID, testutil.AnyTime{}, testutil.AnyTime{}).
		WillReturnRows(storedProductRows(&updated))

	got, err := svc.ReplaceProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	mockDB.ExpectationsWereMet(t)
}

func TestProductService_DeleteProduct_NotFound(t *testing.T) {
	svc, mockDB, ctx := setupProductService(t)

	mockDB.Mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND user_id = \$2`).
		WithArgs("missing", testUserID).
		WillReturnError(sql.ErrNoRows)

	err := svc.DeleteProduct(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

// storedProduct builds a product row as the repository would return it
func storedProduct(id string, stock int) *repository.Product {
	now := time.Now().UTC().Truncate(time.Second)
	return &repository.Product{
		ID:               id,
		UserID:           testUserID,
		Name:             "Shampoo",
		Category:         "shampoo",
		RegistrationDate: now.AddDate(0, -1, 0),
		ExpiryDate:       now.AddDate(0, 2, 0),
		Stock:            stock,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func storedProductRows(p *repository.Product) *sqlmock.Rows {
	return testutil.MockRows(
		"id", "user_id", "name", "category", "registration_date", "expiry_date",
		"manufacturing_date", "expiry_period_before_opening", "period_after_opening",
		"stock", "memo", "created_at", "updated_at",
	).AddRow(
		p.ID, p.UserID, p.Name, p.Category, p.RegistrationDate, p.ExpiryDate,
		p.ManufacturingDate, p.ExpiryPeriodBeforeOpening, p.PeriodAfterOpening,
		p.Stock, p.Memo, p.CreatedAt, p.UpdatedAt,
	)
}

func expectGetProduct(mockDB *testutil.MockDB, p *repository.Product) {
	mockDB.Mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND user_id = \$2`).
		WithArgs(p.ID, testUserID).
		WillReturnRows(storedProductRows(p))
}
