package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// Product lifecycle events
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"

	// Replacement events
	EventProductReplaced = "product.replaced"

	// Reminder events
	EventReminderDue = "product.reminder.due"

	// Shopping list events
	EventShoppingListIntent = "product.shoppinglist.intent"
	EventShoppingListAdded  = "product.shoppinglist.added"
)

// Exchange names
const (
	ExchangeProductEvents = "product.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Product Events

// ProductCreatedEvent is published when a product is registered
type ProductCreatedEvent struct {
	ProductID  string    `json:"product_id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	ExpiryDate time.Time `json:"expiry_date"`
	Stock      int       `json:"stock"`
}

// ProductUpdatedEvent is published when a product is updated
type ProductUpdatedEvent struct {
	ProductID  string         `json:"product_id"`
	UserID     string         `json:"user_id"`
	Fields     map[string]any `json:"fields"` // Changed fields
	ExpiryDate time.Time      `json:"expiry_date"`
}

// ProductDeletedEvent is published when a product is deleted
type ProductDeletedEvent struct {
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
}

// ProductReplacedEvent is published when a product is swapped for a fresh
// one from stock
type ProductReplacedEvent struct {
	ProductID        string    `json:"product_id"`
	UserID           string    `json:"user_id"`
	Name             string    `json:"name"`
	RegistrationDate time.Time `json:"registration_date"`
	ExpiryDate       time.Time `json:"expiry_date"`
	RemainingStock   int       `json:"remaining_stock"`
	Depleted         bool      `json:"depleted"`
}

// ReminderDueEvent is published when a product enters its notification window
type ReminderDueEvent struct {
	ProductID     string `json:"product_id"`
	UserID        string `json:"user_id"`
	ProductName   string `json:"product_name"`
	DaysRemaining int    `json:"days_remaining"`
}

// ShoppingListIntentEvent is published when a replacement depletes the last
// unit of stock and the product should be offered for repurchase
type ShoppingListIntentEvent struct {
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
}

// ShoppingListAddedEvent is published when an item lands on the shopping list
type ShoppingListAddedEvent struct {
	ItemID    string `json:"item_id"`
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
