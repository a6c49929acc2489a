package flow

import (
	"sort"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
)

const (
	// DefaultMaxFailed caps how many failed flows a registry keeps.
	DefaultMaxFailed = 100
	// DefaultFailedTTL is how long a failed flow is kept after its release.
	DefaultFailedTTL = 10 * time.Minute
)

// SplitKey is the registry key of the split flow of one order.
func SplitKey(orderID string) string {
	return "split:" + orderID
}

// MergeKey is the registry key of the merge flow of one reservation.
func MergeKey(reservationID string) string {
	return "merge:" + reservationID
}

// Registry keeps at most one active flow per key and hands it to one
// caller at a time. Once released, only failed flows are kept, bounded in
// number and age, so their error can still be read.
type Registry struct {
	mu          sync.Mutex
	flows       map[string]*Flow
	held        map[string]bool
	failedAt    map[string]time.Time
	closed      bool
	maxFailed   int
	failedTTL   time.Duration
	now         func() time.Time
	invalidator Invalidator
	observer    Observer
	logger      aqm.Logger
}

type RegistryOption func(*Registry)

// WithFailedRetention bounds the failed flows kept after release.
func WithFailedRetention(maxFailed int, ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if maxFailed >= 0 {
			r.maxFailed = maxFailed
		}
		if ttl > 0 {
			r.failedTTL = ttl
		}
	}
}

func NewRegistry(invalidator Invalidator, observer Observer, logger aqm.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	r := &Registry{
		flows:       make(map[string]*Flow),
		held:        make(map[string]bool),
		failedAt:    make(map[string]time.Time),
		maxFailed:   DefaultMaxFailed,
		failedTTL:   DefaultFailedTTL,
		now:         time.Now,
		invalidator: invalidator,
		observer:    observer,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire returns the flow for key, creating it when needed. It fails with
// ErrBusy while another caller holds the flow and with ErrClosed after CloseAll.
func (r *Registry) Acquire(key string) (*Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if r.held[key] {
		return nil, ErrBusy
	}

	f, ok := r.flows[key]
	if !ok || f.Closed() {
		f = New(key, r.invalidator, WithLogger(r.logger), WithObserver(r.observer))
		r.flows[key] = f
	}
	delete(r.failedAt, key)
	r.held[key] = true
	return f, nil
}

// Release hands the flow back. A failed flow is kept; any other is forgotten.
func (r *Registry) Release(f *Flow) {
	if f == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.flows[f.key] != f {
		return
	}
	delete(r.held, f.key)
	if f.Closed() || f.State() != Failed {
		delete(r.flows, f.key)
		return
	}
	r.failedAt[f.key] = r.now()
	r.pruneLocked()
}

// Snapshots lists every tracked flow ordered by key.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	r.pruneLocked()
	flows := make([]*Flow, 0, len(r.flows))
	for _, f := range r.flows {
		flows = append(flows, f)
	}
	r.mu.Unlock()

	out := make([]Snapshot, 0, len(flows))
	for _, f := range flows {
		out = append(out, f.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// CloseAll tears every flow down and refuses further acquisitions. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for key, f := range r.flows {
		f.Close()
		delete(r.flows, key)
	}
	r.held = make(map[string]bool)
	r.failedAt = make(map[string]time.Time)
	r.logger.Info("flows closed")
}

// pruneLocked drops released failed flows past the TTL, then the oldest
// ones beyond the cap.
func (r *Registry) pruneLocked() {
	cutoff := r.now().Add(-r.failedTTL)
	keys := make([]string, 0, len(r.failedAt))
	for key, at := range r.failedAt {
		if at.Before(cutoff) {
			r.forgetLocked(key)
			continue
		}
		keys = append(keys, key)
	}

	if len(keys) <= r.maxFailed {
		return
	}
	sort.Slice(keys, func(i, j int) bool { return r.failedAt[keys[i]].Before(r.failedAt[keys[j]]) })
	for _, key := range keys[:len(keys)-r.maxFailed] {
		r.forgetLocked(key)
	}
}

func (r *Registry) forgetLocked(key string) {
	delete(r.failedAt, key)
	delete(r.flows, key)
}
