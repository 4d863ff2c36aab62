package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/bathtrack/bathtrack-backend/pkg/database"
	"github.com/bathtrack/bathtrack-backend/pkg/errors"
	"github.com/bathtrack/bathtrack-backend/pkg/userctx"
	"github.com/google/uuid"
)

// ShoppingListItem represents an entry on a user's shopping list
type ShoppingListItem struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"-"`
	ProductID *string    `db:"product_id" json:"product_id,omitempty"`
	Name      string     `db:"name" json:"name"`
	Category  *string    `db:"category" json:"category,omitempty"`
	Checked   bool       `db:"checked" json:"checked"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// ShoppingListRepository handles shopping list persistence
type ShoppingListRepository struct {
	db *database.DB
}

// NewShoppingListRepository creates a new shopping list repository
func NewShoppingListRepository(db *database.DB) *ShoppingListRepository {
	return &ShoppingListRepository{db: db}
}

// Create adds an item to the caller's shopping list
func (r *ShoppingListRepository) Create(ctx context.Context, item *ShoppingListItem) error {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return err
	}

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.UserID = userID

	query := `
		INSERT INTO shopping_list_items (id, user_id, product_id, name, category, checked)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowxContext(ctx, query,
		item.ID, item.UserID, item.ProductID, item.Name, item.Category, item.Checked,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return mapDBError(err)
	}

	return nil
}

// List lists the caller's shopping list items
func (r *ShoppingListRepository) List(ctx context.Context) ([]*ShoppingListItem, error) {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return nil, err
	}

	var items []*ShoppingListItem
	query := `
		SELECT id, user_id, product_id, name, category, checked, created_at, updated_at
		FROM shopping_list_items
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, err
	}

	return items, nil
}

// ExistsForProduct reports whether an unchecked entry for the product is
// already on the caller's list. Used to deduplicate replacement intents.
func (r *ShoppingListRepository) ExistsForProduct(ctx context.Context, productID string) (bool, error) {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM shopping_list_items
			WHERE user_id = $1 AND product_id = $2 AND checked = FALSE AND deleted_at IS NULL
		)
	`
	if err := r.db.GetContext(ctx, &exists, query, userID, productID); err != nil {
		return false, err
	}

	return exists, nil
}

// SetChecked marks an item as checked or unchecked
func (r *ShoppingListRepository) SetChecked(ctx context.Context, id string, checked bool) error {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE shopping_list_items SET checked = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, userID, checked)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("shopping list item")
	}

	return nil
}

// SoftDelete removes an item from the caller's shopping list
func (r *ShoppingListRepository) SoftDelete(ctx context.Context, id string) error {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return err
	}

	query := `UPDATE shopping_list_items SET deleted_at = NOW() WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("shopping list item")
	}

	return nil
}

// GetByID gets a shopping list item by ID
func (r *ShoppingListRepository) GetByID(ctx context.Context, id string) (*ShoppingListItem, error) {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return nil, err
	}

	var item ShoppingListItem
	query := `
		SELECT id, user_id, product_id, name, category, checked, created_at, updated_at
		FROM shopping_list_items
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	err = r.db.GetContext(ctx, &item, query, id, userID)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("shopping list item")
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}
