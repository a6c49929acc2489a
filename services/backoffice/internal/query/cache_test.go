package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoadCachesValue(t *testing.T) {
	c := NewCache(time.Minute, nil)
	calls := 0
	fetch := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"o-1", "o-2"}, nil
	}

	key := OrdersFor("r-1")
	for i := 0; i < 3; i++ {
		got, err := Load(context.Background(), c, key, fetch)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Load() = %v", got)
		}
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}
}

func TestLoadExpires(t *testing.T) {
	c := NewCache(30*time.Second, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	calls := 0
	fetch := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}

	key := Order("o-1")
	first, _ := Load(context.Background(), c, key, fetch)
	now = now.Add(29 * time.Second)
	cached, _ := Load(context.Background(), c, key, fetch)
	now = now.Add(time.Second)
	fresh, _ := Load(context.Background(), c, key, fetch)

	if first != 1 || cached != 1 || fresh != 2 {
		t.Errorf("loads = %d, %d, %d, want 1, 1, 2", first, cached, fresh)
	}
}

func TestLoadDoesNotCacheErrors(t *testing.T) {
	c := NewCache(time.Minute, nil)
	boom := errors.New("boom")
	calls := 0
	fetch := func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 7, nil
	}

	key := Order("o-1")
	if _, err := Load(context.Background(), c, key, fetch); !errors.Is(err, boom) {
		t.Fatalf("Load() error = %v, want boom", err)
	}
	got, err := Load(context.Background(), c, key, fetch)
	if err != nil || got != 7 {
		t.Errorf("Load() = %d, %v, want 7", got, err)
	}
}

func TestLoadSharesConcurrentFetch(t *testing.T) {
	c := NewCache(time.Minute, nil)
	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Load(context.Background(), c, Key{Collection: Shifts, Scope: "week"}, fetch)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
	for i, r := range results {
		if r != "shared" {
			t.Errorf("results[%d] = %q", i, r)
		}
	}
}

func TestInvalidationDuringFetchIsNotOverwritten(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *Cache, key Key)
	}{
		{name: "key", invalidate: func(c *Cache, key Key) { c.Invalidate(key) }},
		{name: "collection", invalidate: func(c *Cache, key Key) { c.InvalidateCollection(key.Collection) }},
		{name: "unscopedKey", invalidate: func(c *Cache, key Key) { c.Invalidate(Key{Collection: key.Collection}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache(time.Minute, nil)
			key := OrdersFor("r-1")
			started := make(chan struct{})
			release := make(chan struct{})
			done := make(chan struct{})

			go func() {
				defer close(done)
				_, _ = Load(context.Background(), c, key, func(ctx context.Context) (string, error) {
					close(started)
					<-release
					return "stale", nil
				})
			}()

			<-started
			tt.invalidate(c, key)
			close(release)
			<-done

			if v, ok := c.Peek(key); ok {
				t.Fatalf("stale value %v repopulated the cache", v)
			}

			got, err := Load(context.Background(), c, key, func(ctx context.Context) (string, error) {
				return "fresh", nil
			})
			if err != nil || got != "fresh" {
				t.Errorf("Load() = %q, %v, want fresh", got, err)
			}
		})
	}
}

func TestInvalidateCollectionLeavesOthers(t *testing.T) {
	c := NewCache(time.Minute, nil)
	ctx := context.Background()
	one := func(ctx context.Context) (int, error) { return 1, nil }

	_, _ = Load(ctx, c, OrdersFor("r-1"), one)
	_, _ = Load(ctx, c, Order("o-1"), one)
	_, _ = Load(ctx, c, Key{Collection: Shifts, Scope: "week"}, one)

	c.InvalidateCollection(Orders)

	if _, ok := c.Peek(OrdersFor("r-1")); ok {
		t.Error("reservation orders should be dropped")
	}
	if _, ok := c.Peek(Order("o-1")); ok {
		t.Error("single order should be dropped")
	}
	if _, ok := c.Peek(Key{Collection: Shifts, Scope: "week"}); !ok {
		t.Error("shifts entry should survive an orders invalidation")
	}
}

func TestLoadNilCacheFetches(t *testing.T) {
	got, err := Load(context.Background(), nil, Order("o-1"), func(ctx context.Context) (int, error) {
		return 5, nil
	})
	if err != nil || got != 5 {
		t.Errorf("Load() = %d, %v", got, err)
	}
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{name: "collectionOnly", key: Key{Collection: Orders}, want: "orders"},
		{name: "scoped", key: OrdersFor("r-9"), want: "orders:reservation/r-9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadSharedFetchIgnoresCallerCancel(t *testing.T) {
	c := NewCache(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := Load(ctx, c, Order("o-1"), func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "order", nil
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != "order" {
		t.Errorf("Load() = %q, want order", got)
	}
	if _, ok := c.Peek(Order("o-1")); !ok {
		t.Error("fetched value should be cached")
	}
}
