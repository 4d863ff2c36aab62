package consumers

import (
	"context"

	"github.com/bathtrack/bathtrack-backend/internal/product/events"
	"github.com/bathtrack/bathtrack-backend/internal/product/repository"
	"github.com/bathtrack/bathtrack-backend/pkg/logger"
	"github.com/bathtrack/bathtrack-backend/pkg/messaging"
	"github.com/bathtrack/bathtrack-backend/pkg/userctx"
)

// ShoppingListConsumer consumes shopping list intent events emitted when a
// replacement depletes the last unit of stock, and materializes them as
// shopping list entries.
type ShoppingListConsumer struct {
	consumer         *messaging.Consumer
	shoppingListRepo *repository.ShoppingListRepository
	publisher        *events.ProductEventPublisher
	logger           *logger.Logger
}

// NewShoppingListConsumer creates a new shopping list consumer
func NewShoppingListConsumer(rmq *messaging.RabbitMQ, shoppingListRepo *repository.ShoppingListRepository, publisher *events.ProductEventPublisher, log *logger.Logger) (*ShoppingListConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "product-service.shoppinglist-intents", log)
	if err != nil {
		return nil, err
	}

	// Subscribe to shopping list intents
	if err := consumer.Subscribe(messaging.ExchangeProductEvents, messaging.EventShoppingListIntent); err != nil {
		return nil, err
	}

	c := &ShoppingListConsumer{
		consumer:         consumer,
		shoppingListRepo: shoppingListRepo,
		publisher:        publisher,
		logger:           log,
	}

	consumer.RegisterHandler(messaging.EventShoppingListIntent, c.handleIntent)

	return c, nil
}

// Start starts consuming messages
func (c *ShoppingListConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// handleIntent adds the depleted product to the owner's shopping list. An
// existing unchecked entry for the same product suppresses the add, so
// replaying the event or replacing twice never duplicates list entries.
func (c *ShoppingListConsumer) handleIntent(ctx context.Context, event *messaging.Event) error {
	var data messaging.ShoppingListIntentEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	log := c.logger.WithProductID(data.ProductID).WithUserID(data.UserID)
	log.Info().Msg("received shopping list intent")

	// The event carries the owning user; repository calls are user-scoped
	ctx = userctx.WithUserID(ctx, data.UserID)

	exists, err := c.shoppingListRepo.ExistsForProduct(ctx, data.ProductID)
	if err != nil {
		return err
	}
	if exists {
		log.Debug().Msg("product already on shopping list, skipping")
		return nil
	}

	category := data.Category
	item := &repository.ShoppingListItem{
		ProductID: &data.ProductID,
		Name:      data.Name,
		Category:  &category,
	}
	if err := c.shoppingListRepo.Create(ctx, item); err != nil {
		return err
	}

	c.publisher.PublishShoppingListAdded(ctx, item)

	return nil
}
