package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProductMigrations returns the schema for the product service tables
func ProductMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(50) NOT NULL,
			registration_date TIMESTAMPTZ NOT NULL,
			expiry_date TIMESTAMPTZ NOT NULL,
			manufacturing_date TIMESTAMPTZ,
			expiry_period_before_opening INT,
			period_after_opening INT,
			stock INT NOT NULL DEFAULT 1 CONSTRAINT products_stock_non_negative CHECK (stock >= 0),
			memo TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_user_expiry ON products (user_id, expiry_date) WHERE deleted_at IS NULL`,
		`CREATE TABLE IF NOT EXISTS shopping_list_items (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id VARCHAR(255) NOT NULL,
			product_id UUID,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(50),
			checked BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shopping_list_user ON shopping_list_items (user_id) WHERE deleted_at IS NULL`,
	}
}

// FixtureFactory builds test data with sensible defaults
type FixtureFactory struct {
	counter int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

// ProductFixture holds the column values for a test product
type ProductFixture struct {
	ID                        string
	UserID                    string
	Name                      string
	Category                  string
	RegistrationDate          time.Time
	ExpiryDate                time.Time
	ManufacturingDate         *time.Time
	ExpiryPeriodBeforeOpening *int
	PeriodAfterOpening        *int
	Stock                     int
	Memo                      *string
}

// ProductOption customizes a product fixture
type ProductOption func(*ProductFixture)

// WithUser sets the owning user
func WithUser(userID string) ProductOption {
	return func(p *ProductFixture) { p.UserID = userID }
}

// WithCategory sets the category
func WithCategory(category string) ProductOption {
	return func(p *ProductFixture) { p.Category = category }
}

// WithStock sets the stock level
func WithStock(stock int) ProductOption {
	return func(p *ProductFixture) { p.Stock = stock }
}

// WithExpiry sets the expiry date
func WithExpiry(expiry time.Time) ProductOption {
	return func(p *ProductFixture) { p.ExpiryDate = expiry }
}

// Product builds a test product with defaults: a shampoo registered a
// month ago, expiring in two months, with one unit of stock.
func (f *FixtureFactory) Product(opts ...ProductOption) *ProductFixture {
	f.counter++

	now := time.Now().UTC().Truncate(time.Second)
	p := &ProductFixture{
		ID:               uuid.New().String(),
		UserID:           "test-user",
		Name:             fmt.Sprintf("Test Product %d", f.counter),
		Category:         "shampoo",
		RegistrationDate: now.AddDate(0, -1, 0),
		ExpiryDate:       now.AddDate(0, 2, 0),
		Stock:            1,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}
