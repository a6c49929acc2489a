package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL applies when query.ttl is not configured.
const DefaultTTL = 30 * time.Second

// Collection names a family of cached remote reads.
type Collection string

const (
	Orders Collection = "orders"
	Shifts Collection = "shifts"
)

// Key identifies one cached read. An empty Scope stands for the whole collection.
type Key struct {
	Collection Collection
	Scope      string
}

func (k Key) String() string {
	if k.Scope == "" {
		return string(k.Collection)
	}
	return string(k.Collection) + ":" + k.Scope
}

// OrdersFor is the key of the orders of one reservation.
func OrdersFor(reservationID string) Key {
	return Key{Collection: Orders, Scope: "reservation/" + reservationID}
}

// Order is the key of a single order.
func Order(orderID string) Key {
	return Key{Collection: Orders, Scope: "order/" + orderID}
}

// ShiftsBetween is the key of a shift range listing.
func ShiftsBetween(from, to time.Time) Key {
	return Key{Collection: Shifts, Scope: from.Format(time.RFC3339) + "/" + to.Format(time.RFC3339)}
}

type entry struct {
	value     any
	fetchedAt time.Time
}

type generation struct {
	key        uint64
	collection uint64
}

// Cache holds the last server response per key. Reads for the same key
// share one in-flight request, and a request that started before an
// invalidation never repopulates the cache.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]entry
	keyGens  map[Key]uint64
	collGens map[Collection]uint64
	group    singleflight.Group
	ttl      time.Duration
	now      func() time.Time
	logger   aqm.Logger
}

func NewCache(ttl time.Duration, logger aqm.Logger) *Cache {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries:  make(map[Key]entry),
		keyGens:  make(map[Key]uint64),
		collGens: make(map[Collection]uint64),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Load returns the cached value for key or fetches it. A nil cache always fetches.
func Load[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return fetch(ctx)
	}

	if v, ok := c.Peek(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	gen := c.generation(key)
	flight := fmt.Sprintf("%s#%d.%d", key, gen.collection, gen.key)
	// Shared by every waiter, so one caller going away must not cancel it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(flight, func() (any, error) {
		val, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		c.store(key, gen, val)
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry %s has type %T", key, v)
	}
	return typed, nil
}

// Peek returns the live entry for key without fetching.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Invalidate drops the given keys. A key without Scope drops its whole collection.
func (c *Cache) Invalidate(keys ...Key) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if key.Scope == "" {
			c.invalidateCollectionLocked(key.Collection)
			continue
		}
		c.keyGens[key]++
		delete(c.entries, key)
	}
	c.logger.Debug("cache invalidated", "keys", len(keys))
}

// InvalidateCollection drops every entry of the given collections.
func (c *Cache) InvalidateCollection(collections ...Collection) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, coll := range collections {
		c.invalidateCollectionLocked(coll)
	}
}

func (c *Cache) invalidateCollectionLocked(coll Collection) {
	c.collGens[coll]++
	for key := range c.entries {
		if key.Collection == coll {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) generation(key Key) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return generation{key: c.keyGens[key], collection: c.collGens[key.Collection]}
}

func (c *Cache) store(key Key, gen generation, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := generation{key: c.keyGens[key], collection: c.collGens[key.Collection]}
	if current != gen {
		c.logger.Debug("discarding stale fetch", "key", key.String())
		return
	}
	c.entries[key] = entry{value: value, fetchedAt: c.now()}
}
