package query

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/appetiteclub/backoffice/pkg"
)

// Broadcaster drops keys from the local cache and tells the other
// instances to do the same. Without a publisher it only acts locally.
type Broadcaster struct {
	cache     *Cache
	publisher events.Publisher
	source    string
	logger    aqm.Logger
}

func NewBroadcaster(cache *Cache, publisher events.Publisher, source string, logger aqm.Logger) *Broadcaster {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Broadcaster{
		cache:     cache,
		publisher: publisher,
		source:    source,
		logger:    logger,
	}
}

// Invalidate never fails the caller: a lost broadcast only delays the
// other instances until their entries expire.
func (b *Broadcaster) Invalidate(ctx context.Context, keys ...Key) {
	if len(keys) == 0 {
		return
	}
	b.cache.Invalidate(keys...)

	if b.publisher == nil {
		return
	}

	evt := pkg.CollectionsInvalidatedEvent{
		EventType:  pkg.EventCollectionsInvalidated,
		Keys:       toEventKeys(keys),
		Source:     b.source,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		b.logger.Error("failed to marshal invalidation event", "error", err)
		return
	}
	if err := b.publisher.Publish(ctx, pkg.BackofficeInvalidationTopic, payload); err != nil {
		b.logger.Error("failed to publish invalidation event", "error", err, "keys", len(keys))
	}
}

func toEventKeys(keys []Key) []pkg.InvalidationKey {
	out := make([]pkg.InvalidationKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, pkg.InvalidationKey{Collection: string(k.Collection), Scope: k.Scope})
	}
	return out
}

func fromEventKeys(keys []pkg.InvalidationKey) []Key {
	out := make([]Key, 0, len(keys))
	for _, k := range keys {
		if k.Collection == "" {
			continue
		}
		out = append(out, Key{Collection: Collection(k.Collection), Scope: k.Scope})
	}
	return out
}
