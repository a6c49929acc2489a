package flow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func snapshotKeys(reg *Registry) []string {
	var keys []string
	for _, s := range reg.Snapshots() {
		keys = append(keys, s.Key)
	}
	return keys
}

func failFlow(t *testing.T, reg *Registry, key string) {
	t.Helper()
	rec := &recorder{}
	f, err := reg.Acquire(key)
	if err != nil {
		t.Fatalf("Acquire(%s) error = %v", key, err)
	}
	validated(t, f, commandReturning(rec, nil, errors.New("remote refused")))
	_, _ = f.Submit(context.Background())
	reg.Release(f)
}

func TestRegistryOneHolderPerKey(t *testing.T) {
	reg := NewRegistry(&recorder{}, nil, nil)

	first, err := reg.Acquire(SplitKey("o-1"))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := reg.Acquire(SplitKey("o-1")); !errors.Is(err, ErrBusy) {
		t.Errorf("second Acquire() = %v, want ErrBusy", err)
	}
	if _, err := reg.Acquire(SplitKey("o-2")); err != nil {
		t.Errorf("Acquire() for another key = %v", err)
	}

	reg.Release(first)
	if _, err := reg.Acquire(SplitKey("o-1")); err != nil {
		t.Fatalf("Acquire() after release = %v", err)
	}
}

func TestRegistryReleaseForgetsUnfailedFlows(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, f *Flow)
	}{
		{
			name: "succeeded",
			run: func(t *testing.T, f *Flow) {
				validated(t, f, commandReturning(&recorder{}, nil, nil))
				_, _ = f.Submit(context.Background())
			},
		},
		{
			name: "validationFailure",
			run: func(t *testing.T, f *Flow) {
				_ = f.Select()
				_ = f.Validate(func() (Command, error) { return nil, errors.New("nothing selected") })
			},
		},
		{
			name: "neverSelected",
			run:  func(t *testing.T, f *Flow) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry(&recorder{}, nil, nil)
			f, _ := reg.Acquire(MergeKey("r-1"))
			tt.run(t, f)
			reg.Release(f)

			if keys := snapshotKeys(reg); len(keys) != 0 {
				t.Errorf("tracked flows = %v, want none", keys)
			}
		})
	}
}

func TestRegistryKeepsFailedFlows(t *testing.T) {
	reg := NewRegistry(&recorder{}, nil, nil)
	failFlow(t, reg, MergeKey("r-1"))

	snaps := reg.Snapshots()
	if len(snaps) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(snaps))
	}
	if snaps[0].State != Failed || snaps[0].Error != "remote refused" {
		t.Errorf("snapshot = %+v", snaps[0])
	}
}

func TestRegistryBoundsFailedFlows(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	reg := NewRegistry(&recorder{}, nil, nil, WithFailedRetention(2, time.Minute))
	reg.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		failFlow(t, reg, fmt.Sprintf("shift:new:%d", i))
		now = now.Add(time.Second)
	}

	keys := snapshotKeys(reg)
	if len(keys) != 2 || keys[0] != "shift:new:1" || keys[1] != "shift:new:2" {
		t.Errorf("tracked flows = %v, want the two newest", keys)
	}

	now = now.Add(2 * time.Minute)
	if keys := snapshotKeys(reg); len(keys) != 0 {
		t.Errorf("tracked flows after ttl = %v, want none", keys)
	}
}

func TestRegistryFailedFlowHeldAgainIsNotPruned(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	reg := NewRegistry(&recorder{}, nil, nil, WithFailedRetention(1, time.Minute))
	reg.now = func() time.Time { return now }

	failFlow(t, reg, SplitKey("o-1"))
	held, err := reg.Acquire(SplitKey("o-1"))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	now = now.Add(time.Hour)
	failFlow(t, reg, SplitKey("o-2"))

	if _, err := reg.Acquire(SplitKey("o-1")); !errors.Is(err, ErrBusy) {
		t.Errorf("Acquire() on held flow = %v, want ErrBusy", err)
	}
	reg.Release(held)
}

func TestRegistryCloseAll(t *testing.T) {
	reg := NewRegistry(&recorder{}, nil, nil)
	f, _ := reg.Acquire(SplitKey("o-1"))

	reg.CloseAll()

	if !f.Closed() {
		t.Error("flow should be closed")
	}
	if _, err := reg.Acquire(SplitKey("o-1")); !errors.Is(err, ErrClosed) {
		t.Errorf("Acquire() after CloseAll = %v, want ErrClosed", err)
	}
	if _, err := reg.Acquire(SplitKey("o-2")); !errors.Is(err, ErrClosed) {
		t.Errorf("Acquire() for a new key after CloseAll = %v, want ErrClosed", err)
	}
	reg.Release(f)
	if keys := snapshotKeys(reg); len(keys) != 0 {
		t.Errorf("tracked flows = %v, want none", keys)
	}
}
