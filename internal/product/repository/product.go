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

// Product represents a registered bathroom product
type Product struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"-"`
	Name             string     `db:"name" json:"name"`
	Category         string     `db:"category" json:"category"`
	RegistrationDate time.Time  `db:"registration_date" json:"registration_date"`
	// ExpiryDate is derived state, recomputed by the service on every write.
	// It is never accepted from a client.
	ExpiryDate                time.Time  `db:"expiry_date" json:"expiry_date"`
	ManufacturingDate         *time.Time `db:"manufacturing_date" json:"manufacturing_date,omitempty"`
	ExpiryPeriodBeforeOpening *int       `db:"expiry_period_before_opening" json:"expiry_period_before_opening,omitempty"`
	PeriodAfterOpening        *int       `db:"period_after_opening" json:"period_after_opening,omitempty"`
	Stock                     int        `db:"stock" json:"stock"`
	Memo                      *string    `db:"memo" json:"memo,omitempty"`
	CreatedAt                 time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                 time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt                 *time.Time `db:"deleted_at" json:"-"`
}

const productColumns = `
	id, user_id, name, category, registration_date, expiry_date,
	manufacturing_date, expiry_period_before_opening, period_after_opening,
	stock, memo, created_at, updated_at`

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// mapDBError surfaces constraint violations as AppErrors on the write
// paths; anything that is not a pq error passes through unchanged.
func mapDBError(err error) error {
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new product
// USER-SCOPED: Inserts with the caller's user ID
func (r *ProductRepository) Create(ctx context.Context, product *Product) error {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return err // Fail-fast if user context missing
	}

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.UserID = userID

	query := `
		INSERT INTO products (
			id, user_id, name, category, registration_date, expiry_date,
			manufacturing_date, expiry_period_before_opening, period_after_opening,
			stock, memo
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowxContext(ctx, query,
		product.ID, product.UserID, product.Name, product.Category,
		product.RegistrationDate, product.ExpiryDate,
		product.ManufacturingDate, product.ExpiryPeriodBeforeOpening,
		product.PeriodAfterOpening, product.Stock, product.Memo,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return mapDBError(err)
	}

	return nil
}

// GetByID gets a product by ID
// USER-SCOPED: Returns only the caller's product
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return nil, err
	}

	var product Product
	query := `
		SELECT ` + productColumns + `
		FROM products WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	err = r.db.GetContext(ctx, &product, query, id, userID)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("product")
	}
	if err != nil {
		return nil, err
	}

	return &product, nil
}

// List lists the caller's products with pagination, optionally filtered by
// category. Products are ordered by expiry date so the most urgent come first.
func (r *ProductRepository) List(ctx context.Context, page, perPage int, category string) ([]*Product, int64, error) {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM products WHERE user_id = $1 AND deleted_at IS NULL`
	args := []interface{}{userID}

	if category != "" {
		countQuery += ` AND category = $2`
		args = append(args, category)
	}

	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := `
		SELECT ` + productColumns + `
		FROM products WHERE user_id = $1 AND deleted_at IS NULL
	`

	if category != "" {
		query += ` AND category = $2 ORDER BY expiry_date LIMIT $3 OFFSET $4`
	} else {
		query += ` ORDER BY expiry_date LIMIT $2 OFFSET $3`
	}
	args = append(args, perPage, offset)

	var products []*Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Update updates a product
// USER-SCOPED: Updates only the caller's product
func (r *ProductRepository) Update(ctx context.Context, product *Product) error {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE products SET
			name = $3, category = $4, registration_date = $5, expiry_date = $6,
			manufacturing_date = $7, expiry_period_before_opening = $8,
			period_after_opening = $9, stock = $10, memo = $11,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		product.ID, userID, product.Name, product.Category,
		product.RegistrationDate, product.ExpiryDate,
		product.ManufacturingDate, product.ExpiryPeriodBeforeOpening,
		product.PeriodAfterOpening, product.Stock, product.Memo,
	)
	if err != nil {
		return mapDBError(err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}

	return nil
}

// ApplyReplacement atomically decrements stock and resets the registration
// and expiry dates. The stock > 0 guard lives in the same statement so two
// concurrent replacements of the last unit cannot both succeed: the second
// matches zero rows and surfaces InsufficientStock.
func (r *ProductRepository) ApplyReplacement(ctx context.Context, id string, registrationDate, expiryDate time.Time) (*Product, error) {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return nil, err
	}

	var product Product
	query := `
		UPDATE products SET
			stock = stock - 1,
			registration_date = $3,
			expiry_date = $4,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL AND stock > 0
		RETURNING ` + productColumns + `
	`

	err = r.db.GetContext(ctx, &product, query, id, userID, registrationDate, expiryDate)
	if err == sql.ErrNoRows {
		// Either the product does not exist or it has no stock left.
		// Distinguish so the caller can report the right condition.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, errors.InsufficientStock()
	}
	if err != nil {
		return nil, mapDBError(err)
	}

	return &product, nil
}

// SoftDelete soft deletes a product
// USER-SCOPED: Deletes only the caller's product
func (r *ProductRepository) SoftDelete(ctx context.Context, id string) error {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return err
	}

	query := `UPDATE products SET deleted_at = NOW() WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}

	return nil
}

// GetAllActive gets all of the caller's products ordered by expiry date
func (r *ProductRepository) GetAllActive(ctx context.Context) ([]*Product, error) {
	userID, err := userctx.UserID(ctx)
	if err != nil {
		return nil, err
	}

	var products []*Product
	query := `
		SELECT ` + productColumns + `
		FROM products WHERE user_id = $1 AND deleted_at IS NULL ORDER BY expiry_date
	`
	if err := r.db.SelectContext(ctx, &products, query, userID); err != nil {
		return nil, err
	}

	return products, nil
}

// ListUserIDs returns the distinct user IDs that own at least one active
// product. Used by the reminder scheduler to scan every user's products.
func (r *ProductRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	var userIDs []string
	query := `SELECT DISTINCT user_id FROM products WHERE deleted_at IS NULL`
	if err := r.db.SelectContext(ctx, &userIDs, query); err != nil {
		return nil, err
	}
	return userIDs, nil
}
