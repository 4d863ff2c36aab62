package service

import (
	"context"
	"time"

	"github.com/bathtrack/bathtrack-backend/internal/product/events"
	"github.com/bathtrack/bathtrack-backend/internal/product/expiry"
	"github.com/bathtrack/bathtrack-backend/internal/product/repository"
	"github.com/bathtrack/bathtrack-backend/pkg/logger"
)

// ProductService handles product business logic
type ProductService struct {
	productRepo      *repository.ProductRepository
	shoppingListRepo *repository.ShoppingListRepository
	publisher        *events.ProductEventPublisher
	categoryDefaults map[string]int
	fallbackMonths   int
	logger           *logger.Logger
	now              func() time.Time
}

// NewProductService creates a new product service
func NewProductService(
	productRepo *repository.ProductRepository,
	shoppingListRepo *repository.ShoppingListRepository,
	publisher *events.ProductEventPublisher,
	categoryDefaults map[string]int,
	fallbackMonths int,
	log *logger.Logger,
) *ProductService {
	return &ProductService{
		productRepo:      productRepo,
		shoppingListRepo: shoppingListRepo,
		publisher:        publisher,
		categoryDefaults: categoryDefaults,
		fallbackMonths:   fallbackMonths,
		logger:           log,
		now:              time.Now,
	}
}

// ProductWithStatus represents a product with its computed replacement status
type ProductWithStatus struct {
	*repository.Product
	DaysRemaining int  `json:"days_remaining"`
	Expired       bool `json:"expired"`
}

// computeExpiry resolves the usage period and derives the expiry date for
// the product's current field values.
func (s *ProductService) computeExpiry(p *repository.Product) time.Time {
	months := expiry.ResolveUsagePeriod(p.PeriodAfterOpening, p.Category, s.categoryDefaults, s.fallbackMonths)
	return expiry.Calculate(p.RegistrationDate, months, p.ManufacturingDate, p.ExpiryPeriodBeforeOpening)
}

func (s *ProductService) enrich(p *repository.Product) *ProductWithStatus {
	days := expiry.DaysRemaining(p.ExpiryDate, s.now())
	return &ProductWithStatus{
		Product:       p,
		DaysRemaining: days,
		Expired:       !p.ExpiryDate.After(s.now()),
	}
}

// CreateProduct registers a new product. The expiry date is always derived
// here, regardless of anything the client sent.
func (s *ProductService) CreateProduct(ctx context.Context, product *repository.Product) (*ProductWithStatus, error) {
	product.ExpiryDate = s.computeExpiry(product)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.publisher.PublishProductCreated(ctx, product)

	return s.enrich(product), nil
}

// GetProduct gets a product with its replacement status
func (s *ProductService) GetProduct(ctx context.Context, id string) (*ProductWithStatus, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(product), nil
}

// ListProducts lists products with replacement status
func (s *ProductService) ListProducts(ctx context.Context, page, perPage int, category string) ([]*ProductWithStatus, int64, error) {
	products, total, err := s.productRepo.List(ctx, page, perPage, category)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*ProductWithStatus, len(products))
	for i, p := range products {
		result[i] = s.enrich(p)
	}

	return result, total, nil
}

// UpdateProduct updates a product and recomputes its expiry date. The
// expiry date is derived state: any change to the registration date, usage
// period, or manufacturing info invalidates the stored value.
func (s *ProductService) UpdateProduct(ctx context.Context, product *repository.Product, changed map[string]any) (*ProductWithStatus, error) {
	product.ExpiryDate = s.computeExpiry(product)

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.publisher.PublishProductUpdated(ctx, product, changed)

	return s.enrich(product), nil
}

// DeleteProduct soft deletes a product
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishProductDeleted(ctx, product.ID, product.UserID)

	return nil
}

// ReplaceProduct swaps in a fresh unit from stock: stock decrements, the
// registration date resets to now, and the expiry date is recomputed with
// the manufacturing info carried over. With no stock remaining the
// operation is rejected and nothing changes. Depleting the last unit
// additionally emits a shopping list intent.
func (s *ProductService) ReplaceProduct(ctx context.Context, id string) (*ProductWithStatus, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	months := expiry.ResolveUsagePeriod(product.PeriodAfterOpening, product.Category, s.categoryDefaults, s.fallbackMonths)
	replacement, err := expiry.Replace(product.Stock, months, product.ManufacturingDate, product.ExpiryPeriodBeforeOpening, s.now())
	if err != nil {
		return nil, err
	}

	// The repository re-checks stock > 0 in the same UPDATE, so a
	// concurrent replacement of the last unit cannot slip through.
	updated, err := s.productRepo.ApplyReplacement(ctx, id, replacement.RegistrationDate, replacement.ExpiryDate)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", updated.ID).
		Int("remaining_stock", updated.Stock).
		Msg("product replaced")

	depleted := updated.Stock == 0
	s.publisher.PublishProductReplaced(ctx, updated, depleted)

	if depleted {
		s.publisher.PublishShoppingListIntent(ctx, updated)
	}

	return s.enrich(updated), nil
}

// Shopping list operations

// ListShoppingList lists the caller's shopping list
func (s *ProductService) ListShoppingList(ctx context.Context) ([]*repository.ShoppingListItem, error) {
	return s.shoppingListRepo.List(ctx)
}

// AddShoppingListItem adds an item to the shopping list. Items linked to a
// product are deduplicated: a second add for the same product is a no-op
// returning the existing state.
func (s *ProductService) AddShoppingListItem(ctx context.Context, item *repository.ShoppingListItem) (*repository.ShoppingListItem, bool, error) {
	if item.ProductID != nil {
		exists, err := s.shoppingListRepo.ExistsForProduct(ctx, *item.ProductID)
		if err != nil {
			return nil, false, err
		}
		if exists {
			return item, false, nil
		}
	}

	if err := s.shoppingListRepo.Create(ctx, item); err != nil {
		return nil, false, err
	}

	return item, true, nil
}

// CheckShoppingListItem marks a shopping list item checked or unchecked
func (s *ProductService) CheckShoppingListItem(ctx context.Context, id string, checked bool) error {
	return s.shoppingListRepo.SetChecked(ctx, id, checked)
}

// RemoveShoppingListItem removes an item from the shopping list
func (s *ProductService) RemoveShoppingListItem(ctx context.Context, id string) error {
	return s.shoppingListRepo.SoftDelete(ctx, id)
}
