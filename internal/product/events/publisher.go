package events

import (
	"context"

	"github.com/bathtrack/bathtrack-backend/internal/product/expiry"
	"github.com/bathtrack/bathtrack-backend/internal/product/repository"
	"github.com/bathtrack/bathtrack-backend/pkg/logger"
	"github.com/bathtrack/bathtrack-backend/pkg/messaging"
)

// ProductEventPublisher publishes product-related events
type ProductEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewProductEventPublisher creates a new product event publisher
func NewProductEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*ProductEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeProductEvents, "product-service", log)
	if err != nil {
		return nil, err
	}

	return &ProductEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishProductCreated publishes a product created event
func (p *ProductEventPublisher) PublishProductCreated(ctx context.Context, product *repository.Product) {
	if p == nil {
		return
	}
	data := messaging.ProductCreatedEvent{
		ProductID:  product.ID,
		UserID:     product.UserID,
		Name:       product.Name,
		Category:   product.Category,
		ExpiryDate: product.ExpiryDate,
		Stock:      product.Stock,
	}

	if err := p.publisher.Publish(ctx, messaging.EventProductCreated, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to publish product created event")
	}
}

// PublishProductUpdated publishes a product updated event
func (p *ProductEventPublisher) PublishProductUpdated(ctx context.Context, product *repository.Product, fields map[string]any) {
	if p == nil {
		return
	}
	data := messaging.ProductUpdatedEvent{
		ProductID:  product.ID,
		UserID:     product.UserID,
		Fields:     fields,
		ExpiryDate: product.ExpiryDate,
	}

	if err := p.publisher.Publish(ctx, messaging.EventProductUpdated, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to publish product updated event")
	}
}

// PublishProductDeleted publishes a product deleted event
func (p *ProductEventPublisher) PublishProductDeleted(ctx context.Context, productID, userID string) {
	if p == nil {
		return
	}
	data := messaging.ProductDeletedEvent{
		ProductID: productID,
		UserID:    userID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventProductDeleted, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", productID).Msg("failed to publish product deleted event")
	}
}

// PublishProductReplaced publishes a product replaced event
func (p *ProductEventPublisher) PublishProductReplaced(ctx context.Context, product *repository.Product, depleted bool) {
	if p == nil {
		return
	}
	data := messaging.ProductReplacedEvent{
		ProductID:        product.ID,
		UserID:           product.UserID,
		Name:             product.Name,
		RegistrationDate: product.RegistrationDate,
		ExpiryDate:       product.ExpiryDate,
		RemainingStock:   product.Stock,
		Depleted:         depleted,
	}

	if err := p.publisher.Publish(ctx, messaging.EventProductReplaced, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to publish product replaced event")
	}
}

// PublishReminderDue publishes a reminder due event
func (p *ProductEventPublisher) PublishReminderDue(ctx context.Context, userID string, reminder *expiry.Reminder) {
	if p == nil {
		return
	}
	data := messaging.ReminderDueEvent{
		ProductID:     reminder.ProductID,
		UserID:        userID,
		ProductName:   reminder.ProductName,
		DaysRemaining: reminder.DaysRemaining,
	}

	if err := p.publisher.Publish(ctx, messaging.EventReminderDue, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", reminder.ProductID).Msg("failed to publish reminder due event")
	}
}

// PublishShoppingListIntent publishes a shopping list intent event
func (p *ProductEventPublisher) PublishShoppingListIntent(ctx context.Context, product *repository.Product) {
	if p == nil {
		return
	}
	data := messaging.ShoppingListIntentEvent{
		ProductID: product.ID,
		UserID:    product.UserID,
		Name:      product.Name,
		Category:  product.Category,
	}

	if err := p.publisher.Publish(ctx, messaging.EventShoppingListIntent, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to publish shopping list intent event")
	}
}

// PublishShoppingListAdded publishes a shopping list added event once an
// intent has been materialized as a list entry
func (p *ProductEventPublisher) PublishShoppingListAdded(ctx context.Context, item *repository.ShoppingListItem) {
	if p == nil {
		return
	}
	data := messaging.ShoppingListAddedEvent{
		ItemID: item.ID,
		UserID: item.UserID,
		Name:   item.Name,
	}
	if item.ProductID != nil {
		data.ProductID = *item.ProductID
	}

	if err := p.publisher.Publish(ctx, messaging.EventShoppingListAdded, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish shopping list added event")
	}
}
