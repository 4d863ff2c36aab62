package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bathtrack/bathtrack-backend/pkg/database"
	"github.com/bathtrack/bathtrack-backend/pkg/errors"
	"github.com/bathtrack/bathtrack-backend/pkg/testutil"
	"github.com/bathtrack/bathtrack-backend/pkg/userctx"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupShoppingListRepo(t *testing.T) (*ShoppingListRepository, *testutil.MockDB, context.Context) {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	repo := NewShoppingListRepository(&database.DB{DB: mockDB.DB})
	ctx := userctx.WithUserID(context.Background(), testUserID)
	return repo, mockDB, ctx
}

func TestShoppingListRepository_Create(t *testing.T) {
	repo, mockDB, ctx := setupShoppingListRepo(t)

	now := time.Now()
	productID := "3f1c8a52-7f20-4a7e-9c39-8a2b1f6e4d10"

	mockDB.Mock.ExpectQuery(`INSERT INTO shopping_list_items`).
		WithArgs(testutil.AnyUUID{}, testUserID, productID, "Shampoo", nil, false).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	item := &ShoppingListItem{
		ProductID: &productID,
		Name:      "Shampoo",
	}

	err := repo.Create(ctx, item)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, testUserID, item.UserID)

	mockDB.ExpectationsWereMet(t)
}

func TestShoppingListRepository_ExistsForProduct(t *testing.T) {
	repo, mockDB, ctx := setupShoppingListRepo(t)

	mockDB.Mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(testUserID, "p1").
		WillReturnRows(testutil.MockRows("exists").AddRow(true))

	exists, err := repo.ExistsForProduct(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, exists)

	mockDB.Mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(testUserID, "p2").
		WillReturnRows(testutil.MockRows("exists").AddRow(false))

	exists, err = repo.ExistsForProduct(ctx, "p2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestShoppingListRepository_SetChecked(t *testing.T) {
	repo, mockDB, ctx := setupShoppingListRepo(t)

	mockDB.Mock.ExpectExec(`UPDATE shopping_list_items SET checked = \$3`).
		WithArgs("item-1", testUserID, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetChecked(ctx, "item-1", true))

	mockDB.Mock.ExpectExec(`UPDATE shopping_list_items SET checked = \$3`).
		WithArgs("gone", testUserID, true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SetChecked(ctx, "gone", true), errors.ErrNotFound)
}

func TestShoppingListRepository_NoUserContext(t *testing.T) {
	repo, _, _ := setupShoppingListRepo(t)

	_, err := repo.List(context.Background())
	assert.ErrorIs(t, err, userctx.ErrNoUserInContext)

	_, err = repo.ExistsForProduct(context.Background(), "p1")
	assert.ErrorIs(t, err, userctx.ErrNoUserInContext)
}
