package query

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/appetiteclub/backoffice/pkg"
)

// InvalidationSubscriber applies invalidations broadcast by other instances.
type InvalidationSubscriber struct {
	subscriber events.Subscriber
	cache      *Cache
	source     string
	logger     aqm.Logger
}

func NewInvalidationSubscriber(subscriber events.Subscriber, cache *Cache, source string, logger aqm.Logger) *InvalidationSubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &InvalidationSubscriber{
		subscriber: subscriber,
		cache:      cache,
		source:     source,
		logger:     logger,
	}
}

// Start subscribes to the invalidation topic.
func (s *InvalidationSubscriber) Start(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Info("NATS subscriber not configured, skipping invalidation subscription")
		return nil
	}

	if err := s.subscriber.Subscribe(ctx, pkg.BackofficeInvalidationTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", pkg.BackofficeInvalidationTopic, err)
	}

	s.logger.Info("invalidation subscriber started", "topic", pkg.BackofficeInvalidationTopic)
	return nil
}

func (s *InvalidationSubscriber) Stop(ctx context.Context) error {
	return nil
}

func (s *InvalidationSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt pkg.CollectionsInvalidatedEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Error("failed to unmarshal invalidation event", "error", err)
		return nil
	}

	if evt.EventType != pkg.EventCollectionsInvalidated {
		s.logger.Debug("ignoring unknown event type", "event_type", evt.EventType)
		return nil
	}
	// Our own broadcasts were applied before publishing.
	if s.source != "" && evt.Source == s.source {
		return nil
	}

	keys := fromEventKeys(evt.Keys)
	s.cache.Invalidate(keys...)
	s.logger.Debug("applied remote invalidation", "source", evt.Source, "keys", len(keys))
	return nil
}
