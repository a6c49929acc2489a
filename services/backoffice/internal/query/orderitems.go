package query

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/appetiteclub/backoffice/pkg"
)

// OrderItemSubscriber drops cached orders when the order service reports a
// line change. Events carry no reservation id, so reservation listings are
// dropped as a whole collection.
type OrderItemSubscriber struct {
	subscriber events.Subscriber
	cache      *Cache
	logger     aqm.Logger
}

func NewOrderItemSubscriber(subscriber events.Subscriber, cache *Cache, logger aqm.Logger) *OrderItemSubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &OrderItemSubscriber{
		subscriber: subscriber,
		cache:      cache,
		logger:     logger,
	}
}

func (s *OrderItemSubscriber) Start(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Info("NATS subscriber not configured, skipping order item subscription")
		return nil
	}

	if err := s.subscriber.Subscribe(ctx, pkg.OrderItemsTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", pkg.OrderItemsTopic, err)
	}

	s.logger.Info("order item subscriber started", "topic", pkg.OrderItemsTopic)
	return nil
}

func (s *OrderItemSubscriber) Stop(ctx context.Context) error {
	return nil
}

func (s *OrderItemSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt pkg.OrderItemEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Error("failed to unmarshal order item event", "error", err)
		return nil
	}

	switch evt.EventType {
	case pkg.EventOrderItemCreated, pkg.EventOrderItemUpdated, pkg.EventOrderItemCancelled:
	default:
		s.logger.Debug("ignoring unknown event type", "event_type", evt.EventType)
		return nil
	}

	s.cache.InvalidateCollection(Orders)
	s.logger.Debug("order item changed, orders invalidated",
		"order_id", evt.OrderID,
		"item_id", evt.OrderItemID,
		"event_type", evt.EventType,
	)
	return nil
}
