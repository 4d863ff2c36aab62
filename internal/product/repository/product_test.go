package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/bathtrack/bathtrack-backend/pkg/database"
	"github.com/bathtrack/bathtrack-backend/pkg/errors"
	"github.com/bathtrack/bathtrack-backend/pkg/testutil"
	"github.com/bathtrack/bathtrack-backend/pkg/userctx"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

func setupProductRepo(t *testing.T) (*ProductRepository, *testutil.MockDB, context.Context) {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	repo := NewProductRepository(&database.DB{DB: mockDB.DB})
	ctx := userctx.WithUserID(context.Background(), testUserID)
	return repo, mockDB, ctx
}

func productRows(p *Product) *sqlmock.Rows {
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

func testProduct() *Product {
	now := time.Now().UTC().Truncate(time.Second)
	return &Product{
		ID:               "3f1c8a52-7f20-4a7e-9c39-8a2b1f6e4d10",
		UserID:           testUserID,
		Name:             "Shampoo",
		Category:         "shampoo",
		RegistrationDate: now.AddDate(0, -1, 0),
		ExpiryDate:       now.AddDate(0, 2, 0),
		Stock:            2,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestProductRepository_Create(t *testing.T) {
	repo, mockDB, ctx := setupProductRepo(t)

	now := time.Now()
	mockDB.Mock.ExpectQuery(`INSERT INTO products`).
		WithArgs(
			testutil.AnyUUID{}, testUserID, "Shampoo", "shampoo",
			testutil.AnyTime{}, testutil.AnyTime{},
			nil, nil, nil, 1, nil,
		).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	product := &Product{
		Name:             "Shampoo",
		Category:         "shampoo",
		RegistrationDate: now,
		ExpiryDate:       now.AddDate(0, 3, 0),
		Stock:            1,
	}

	err := repo.Create(ctx, product)
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, testUserID, product.UserID)

	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_Update_ConstraintViolation(t *testing.T) {
	repo, mockDB, ctx := setupProductRepo(t)
	product := testProduct()
	product.Stock = -1

	mockDB.Mock.ExpectExec(`UPDATE products SET`).
		WillReturnError(&pq.Error{
			Code:       "23514",
			Constraint: "products_stock_non_negative",
		})

	err := repo.Update(ctx, product)
	assert.ErrorIs(t, err, errors.ErrValidation)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "must not be negative", appErr.Details["stock"])
}

func TestProductRepository_Create_NoUserContext(t *testing.T) {
	repo, _, _ := setupProductRepo(t)

	err := repo.Create(context.Background(), &Product{Name: "Shampoo"})
	assert.ErrorIs(t, err, userctx.ErrNoUserInContext)
}

func TestProductRepository_GetByID(t *testing.T) {
	repo, mockDB, ctx := setupProductRepo(t)
	want := testProduct()

	mockDB.Mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND user_id = \$2`).
		WithArgs(want.ID, testUserID).
		WillReturnRows(productRows(want))

	got, err := repo.GetByID(ctx, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Stock, got.Stock)

	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	repo, mockDB, ctx := setupProductRepo(t)

	mockDB.Mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND user_id = \$2`).
		WithArgs("missing", testUserID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestProductRepository_ApplyReplacement(t *testing.T) {
	repo, mockDB, ctx := setupProductRepo(t)
	want := testProduct()
	want.Stock = 1

	registrationDate := time.Now().UTC()
	expiryDate := registrationDate.AddDate(0, 3, 0)

	mockDB.Mock.ExpectQuery(`UPDATE products SET\s+stock = stock - 1`).
		WithArgs(want.ID, testUserID, registrationDate, expiryDate).
		WillReturnRows(productRows(want))

	got, err := repo.ApplyReplacement(ctx, want.ID, registrationDate, expiryDate)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	mockDB.ExpectationsWereMet(t)
}

func TestProductRepository_ApplyReplacement_NoStock(t *testing.T) {
	repo, mockDB, ctx := setupProductRepo(t)
	existing := testProduct()
	existing.Stock = 0

	registrationDate := time.Now().UTC()
	expiryDate := registrationDate.AddDate(0, 3, 0)

	// The guarded UPDATE matches no rows, then the existence probe finds
	// the product, so the failure is insufficient stock, not a 404.
	mockDB.Mock.ExpectQuery(`UPDATE products SET\s+stock = stock - 1`).
		WithArgs(existing.ID, testUserID, registrationDate, expiryDate).
		WillReturnError(sql.ErrNoRows)
	mockDB.Mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND user_id = \$2`).
		WithArgs(existing.ID, testUserID).
		WillReturnRows(productRows(existing))

	_, err := repo.ApplyReplacement(ctx, existing.ID, registrationDate, expiryDate)
	assert.ErrorIs(t, err, errors.ErrInsufficientStock)
}

func TestProductRepository_ApplyReplacement_ProductMissing(t *testing.T) {
	repo, mockDB, ctx := setupProductRepo(t)

	registrationDate := time.Now().UTC()
	expiryDate := registrationDate.AddDate(0, 3, 0)

	mockDB.Mock.ExpectQuery(`UPDATE products SET\s+stock = stock - 1`).
		WithArgs("missing", testUserID, registrationDate, expiryDate).
		WillReturnError(sql.ErrNoRows)
	mockDB.Mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND user_id = \$2`).
		WithArgs("missing", testUserID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.ApplyReplacement(ctx, "missing", registrationDate, expiryDate)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestProductRepository_SoftDelete(t *testing.T) {
	repo, mockDB, ctx := setupProductRepo(t)

	mockDB.Mock.ExpectExec(`UPDATE products SET deleted_at = NOW\(\)`).
		WithArgs("p1", testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SoftDelete(ctx, "p1"))

	mockDB.Mock.ExpectExec(`UPDATE products SET deleted_at = NOW\(\)`).
		WithArgs("gone", testUserID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SoftDelete(ctx, "gone"), errors.ErrNotFound)
}

func TestProductRepository_ListUserIDs(t *testing.T) {
	repo, mockDB, _ := setupProductRepo(t)

	mockDB.Mock.ExpectQuery(`SELECT DISTINCT user_id FROM products`).
		WillReturnRows(testutil.MockRows("user_id").AddRow("user-1").AddRow("user-2"))

	userIDs, err := repo.ListUserIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1", "user-2"}, userIDs)
}
