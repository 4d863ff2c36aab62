package consumers

import (
	"context"
	"testing"
	"time"

	"github.com/bathtrack/bathtrack-backend/internal/product/repository"
	"github.com/bathtrack/bathtrack-backend/pkg/database"
	"github.com/bathtrack/bathtrack-backend/pkg/logger"
	"github.com/bathtrack/bathtrack-backend/pkg/messaging"
	"github.com/bathtrack/bathtrack-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupConsumer(t *testing.T) (*ShoppingListConsumer, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	c := &ShoppingListConsumer{
		shoppingListRepo: repository.NewShoppingListRepository(&database.DB{DB: mockDB.DB}),
		logger:           logger.New("test", "test"),
	}
	return c, mockDB
}

func intentEvent(t *testing.T, productID, userID string) *messaging.Event {
	t.Helper()
	event, err := messaging.NewEvent(
		messaging.EventShoppingListIntent,
		"product-service",
		"corr-1",
		messaging.ShoppingListIntentEvent{
			ProductID: productID,
			UserID:    userID,
			Name:      "Shampoo",
			Category:  "shampoo",
		},
	)
	require.NoError(t, err)
	return event
}

func TestShoppingListConsumer_HandleIntent(t *testing.T) {
	c, mockDB := setupConsumer(t)

	mockDB.Mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("user-1", "p1").
		WillReturnRows(testutil.MockRows("exists").AddRow(false))
	mockDB.Mock.ExpectQuery(`INSERT INTO shopping_list_items`).
		WithArgs(testutil.AnyUUID{}, "user-1", "p1", "Shampoo", "shampoo", false).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(time.Now(), time.Now()))

	err := c.handleIntent(context.Background(), intentEvent(t, "p1", "user-1"))
	require.NoError(t, err)

	mockDB.ExpectationsWereMet(t)
}

func TestShoppingListConsumer_HandleIntent_AlreadyListed(t *testing.T) {
	c, mockDB := setupConsumer(t)

	// Unchecked entry already present: replaying the event is a no-op
	mockDB.Mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("user-1", "p1").
		WillReturnRows(testutil.MockRows("exists").AddRow(true))

	err := c.handleIntent(context.Background(), intentEvent(t, "p1", "user-1"))
	require.NoError(t, err)

	mockDB.ExpectationsWereMet(t)
}

func TestShoppingListConsumer_HandleIntent_BadPayload(t *testing.T) {
	c, _ := setupConsumer(t)

	event := &messaging.Event{
		Type: messaging.EventShoppingListIntent,
		Data: []byte(`{invalid`),
	}

	assert.Error(t, c.handleIntent(context.Background(), event))
}
