package pkg

import "time"

const (
	// OrderItemsTopic carries line changes published by the order service.
	OrderItemsTopic = "orders.items"

	EventOrderItemCreated   = "order.item.created"
	EventOrderItemUpdated   = "order.item.updated"
	EventOrderItemCancelled = "order.item.cancelled"
)

// OrderItemEvent is the part of the order service's line event the back
// office reads. Unknown fields are ignored.
type OrderItemEvent struct {
	EventType   string    `json:"event_type"`
	OrderID     string    `json:"order_id"`
	OrderItemID string    `json:"order_item_id"`
	Status      string    `json:"status,omitempty"`
	Quantity    int       `json:"quantity"`
	OccurredAt  time.Time `json:"occurred_at"`
}
