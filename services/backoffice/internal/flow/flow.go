package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/appetiteclub/backoffice/services/backoffice/internal/query"
)

// Command is one mutation sent to the remote API.
type Command interface {
	Name() string
	Execute(ctx context.Context) (any, error)
	// Invalidates lists the cached reads the mutation makes stale.
	Invalidates() []query.Key
}

// Invalidator drops cached reads.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...query.Key)
}

// Observer is told about every finished submission, discarded ones included.
type Observer func(ctx context.Context, outcome Outcome)

// Outcome is what one submission produced.
type Outcome struct {
	ID          uuid.UUID   `json:"id"`
	Flow        string      `json:"flow"`
	Command     string      `json:"command"`
	Result      any         `json:"result,omitempty"`
	Err         error       `json:"-"`
	Discarded   bool        `json:"discarded"`
	Invalidated []query.Key `json:"-"`
	StartedAt   time.Time   `json:"startedAt"`
	FinishedAt  time.Time   `json:"finishedAt"`
}

// Succeeded reports whether the remote API accepted the command.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Snapshot is a read-only view of a flow.
type Snapshot struct {
	Key   string `json:"key"`
	State State  `json:"state"`
	Error string `json:"error,omitempty"`
}

// Flow drives one split or merge from selection to the remote answer.
type Flow struct {
	mu          sync.Mutex
	key         string
	state       State
	err         error
	command     Command
	closed      bool
	invalidator Invalidator
	observer    Observer
	logger      aqm.Logger
}

type Option func(*Flow)

func WithLogger(logger aqm.Logger) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(f *Flow) {
		f.observer = observer
	}
}

func New(key string, invalidator Invalidator, opts ...Option) *Flow {
	f := &Flow{
		key:         key,
		state:       Idle,
		invalidator: invalidator,
		logger:      aqm.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := Snapshot{Key: f.key, State: f.state}
	if f.err != nil {
		snap.Error = f.err.Error()
	}
	return snap
}

// Select starts or restarts the selection and clears any attached error.
func (f *Flow) Select() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if f.state == Submitting {
		return ErrBusy
	}
	f.state = Selecting
	f.err = nil
	f.command = nil
	return nil
}

// Validate builds the command from the current selection. A build error
// keeps the flow in Selecting with the error attached.
func (f *Flow) Validate(build func() (Command, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	switch f.state {
	case Submitting:
		return ErrBusy
	case Selecting, Validated:
	default:
		return fmt.Errorf("%w: validate from %s", ErrInvalidTransition, f.state)
	}

	cmd, err := build()
	if err != nil {
		f.state = Selecting
		f.err = err
		f.command = nil
		return err
	}

	f.state = Validated
	f.err = nil
	f.command = cmd
	return nil
}

// Submit executes the validated command once. The command's cached reads are
// invalidated after its response is observed, whether it succeeded or not.
// If the flow was closed meanwhile the outcome is marked Discarded and the
// flow state is left alone.
func (f *Flow) Submit(ctx context.Context) (Outcome, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Outcome{}, ErrClosed
	}
	if f.state == Submitting {
		f.mu.Unlock()
		return Outcome{}, ErrBusy
	}
	if f.state != Validated || f.command == nil {
		f.mu.Unlock()
		return Outcome{}, ErrNotValidated
	}
	f.state = Submitting
	cmd := f.command
	f.mu.Unlock()

	outcome := Outcome{
		ID:        uuid.New(),
		Flow:      f.key,
		Command:   cmd.Name(),
		StartedAt: time.Now().UTC(),
	}

	result, err := cmd.Execute(ctx)
	outcome.Result = result
	outcome.Err = err
	outcome.FinishedAt = time.Now().UTC()

	// Invalidation must not depend on the caller still waiting.
	detached := context.WithoutCancel(ctx)
	outcome.Invalidated = cmd.Invalidates()
	if f.invalidator != nil && len(outcome.Invalidated) > 0 {
		f.invalidator.Invalidate(detached, outcome.Invalidated...)
	}

	f.mu.Lock()
	if f.closed {
		outcome.Discarded = true
	} else if err != nil {
		f.state = Failed
		f.err = err
	} else {
		f.state = Succeeded
		f.err = nil
		f.command = nil
	}
	f.mu.Unlock()

	if outcome.Discarded {
		f.logger.Info("discarding response of closed flow", "flow", f.key, "command", outcome.Command)
	} else {
		f.logger.Debug("flow submitted", "flow", f.key, "command", outcome.Command, "success", err == nil)
	}

	if f.observer != nil {
		f.observer(detached, outcome)
	}
	return outcome, err
}

// Reselect moves a failed flow back to Selecting. The failure stays attached
// until the next validation.
func (f *Flow) Reselect() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if f.state != Failed {
		return fmt.Errorf("%w: reselect from %s", ErrInvalidTransition, f.state)
	}
	f.state = Selecting
	return nil
}

// Close tears the flow down. An in-flight submission still completes.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *Flow) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
