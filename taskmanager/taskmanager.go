// Package taskmanager provides keyed exclusive and background task execution
// with cancellation-on-supersession: at most one live task exists per key at
// any instant, and a new submission under a key cancels the previous task and
// waits for it to fully unwind before starting.
package taskmanager

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Work is the body of a task. It must honor ctx: cancellation is cooperative,
// and supersession waits for the body to actually return.
type Work func(ctx context.Context) (interface{}, error)

// ErrTimeout is surfaced to exclusive-mode callers when the per-call deadline
// expires. Background mode logs it at the completion callback instead.
var ErrTimeout = errors.New("task timed out")

// ErrShuttingDown is returned for submissions after Shutdown has begun.
var ErrShuttingDown = errors.New("task manager is shutting down")

const defaultSweepInterval = 30 * time.Second

type task struct {
	key    string
	runID  string
	cancel context.CancelFunc
	done   chan struct{}
	status Status
}

// Manager owns the task registry. Construct one per application (or per test)
// and pass it by reference; there are no package-level singletons.
type Manager struct {
	mu       sync.Mutex
	tasks    map[string]*task
	shutdown bool

	sweepStop chan struct{}
	sweepDone chan struct{}
	logger    *slog.Logger
}

// New creates a Manager and starts its periodic registry sweep.
func New() *Manager {
	return NewWithSweepInterval(defaultSweepInterval)
}

// NewWithSweepInterval is New with a custom sweep period, mainly for tests.
func NewWithSweepInterval(interval time.Duration) *Manager {
	m := &Manager{
		tasks:     make(map[string]*task),
		sweepStop: make(chan struct{}),
		sweepDone: make(chan struct{}),
		logger:    slog.Default().With("component", "taskmanager"),
	}
	go m.sweepLoop(interval)
	return m
}

// begin installs a new task under key, cancelling and fully awaiting any task
// already live under that key. Two generations of work under one key never
// overlap, even briefly.
func (m *Manager) begin(parent context.Context, key string, timeout time.Duration) (*task, context.Context, error) {
	for {
		m.mu.Lock()
		if m.shutdown {
			m.mu.Unlock()
			return nil, nil, ErrShuttingDown
		}
		old := m.tasks[key]
		if old == nil {
			var tctx context.Context
			var cancel context.CancelFunc
			if timeout > 0 {
				tctx, cancel = context.WithTimeout(parent, timeout)
			} else {
				tctx, cancel = context.WithCancel(parent)
			}
			t := &task{
				key:    key,
				runID:  uuid.New().String(),
				cancel: cancel,
				done:   make(chan struct{}),
				status: StatusPending,
			}
			m.tasks[key] = t
			m.mu.Unlock()
			return t, tctx, nil
		}
		old.cancel()
		m.mu.Unlock()
		// wait for the superseded task to finish unwinding so its cleanup
		// code has run before the replacement starts
		<-old.done
	}
}

// finish records the terminal state, removes the task from the live registry
// (unless it has already been replaced) and releases waiters.
func (m *Manager) finish(t *task, ctx context.Context, err error) {
	m.mu.Lock()
	switch {
	case err == nil:
		t.status = StatusCompleted
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		t.status = StatusCancelled
	default:
		t.status = StatusFailed
	}
	if m.tasks[t.key] == t {
		delete(m.tasks, t.key)
	}
	m.mu.Unlock()
	t.cancel()
	close(t.done)
}

// RunExclusive runs work under key and blocks until it completes, returning
// its result. A task already live under the key is cancelled and awaited
// first. Timeouts surface as ErrTimeout; zero timeout means none.
func (m *Manager) RunExclusive(ctx context.Context, key string, work Work, timeout time.Duration) (interface{}, error) {
	t, tctx, err := m.begin(ctx, key, timeout)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	t.status = StatusRunning
	m.mu.Unlock()

	result, werr := work(tctx)
	if werr == nil && tctx.Err() != nil {
		// the body returned normally but the context expired under it
		werr = tctx.Err()
	}
	m.finish(t, tctx, werr)

	if werr != nil && errors.Is(werr, context.DeadlineExceeded) {
		return nil, ErrTimeout
	}
	return result, werr
}

// Handle tracks a background task. Done is closed once the task reaches a
// terminal state; Err and Result are valid after that.
type Handle struct {
	key  string
	done chan struct{}

	mu     sync.Mutex
	runID  string
	result interface{}
	err    error
}

// Done returns a channel closed when the task terminates.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Key returns the registry key the task was submitted under.
func (h *Handle) Key() string { return h.key }

// RunID returns the unique id of this run, for correlating with log lines.
// Empty until the task has been admitted to the registry.
func (h *Handle) RunID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runID
}

// Err returns the task error, or nil. Only meaningful after Done is closed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Result returns the task result. Only meaningful after Done is closed.
func (h *Handle) Result() interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// RunBackground fires work under key and returns immediately. The same
// supersession rule applies as for RunExclusive. Failures and timeouts are
// captured and logged by the completion callback, never lost silently, and
// the registry entry is removed without the caller needing to poll.
func (m *Manager) RunBackground(ctx context.Context, key string, work Work, timeout time.Duration) *Handle {
	h := &Handle{key: key, done: make(chan struct{})}

	go func() {
		defer close(h.done)

		t, tctx, err := m.begin(ctx, key, timeout)
		if err != nil {
			h.mu.Lock()
			h.err = err
			h.mu.Unlock()
			return
		}
		h.mu.Lock()
		h.runID = t.runID
		h.mu.Unlock()

		m.mu.Lock()
		t.status = StatusRunning
		m.mu.Unlock()

		result, werr := work(tctx)
		if werr == nil && tctx.Err() != nil {
			werr = tctx.Err()
		}
		m.finish(t, tctx, werr)

		h.mu.Lock()
		h.result = result
		h.err = werr
		h.mu.Unlock()

		// completion callback: log the terminal state, nothing awaits us
		switch {
		case werr == nil:
			m.logger.Debug("background task completed", "key", key, "run_id", t.runID)
		case errors.Is(werr, context.Canceled):
			m.logger.Debug("background task cancelled", "key", key, "run_id", t.runID)
		case errors.Is(werr, context.DeadlineExceeded):
			m.logger.Warn("background task timed out", "key", key, "run_id", t.runID)
		default:
			m.logger.Warn("background task failed", "key", key, "run_id", t.runID, "error", werr)
		}
	}()

	return h
}

// Cancel requests cancellation of the task under key. Returns false when no
// task is live under the key.
func (m *Manager) Cancel(key string) bool {
	m.mu.Lock()
	t := m.tasks[key]
	m.mu.Unlock()
	if t == nil {
		return false
	}
	t.cancel()
	return true
}

// CancelAll cancels every live task. Used on shutdown or hard reset.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	live := make([]*task, 0, len(m.tasks))
	for _, t := range m.tasks {
		live = append(live, t)
	}
	m.mu.Unlock()
	for _, t := range live {
		t.cancel()
	}
}

// CountActive reports the number of live tasks.
func (m *Manager) CountActive() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Shutdown stops the sweep, cancels all live tasks and waits for each of them
// to finish unwinding. No task outlives the manager; submissions after
// Shutdown return ErrShuttingDown.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true
	live := make([]*task, 0, len(m.tasks))
	for _, t := range m.tasks {
		live = append(live, t)
	}
	m.mu.Unlock()

	close(m.sweepStop)
	<-m.sweepDone

	for _, t := range live {
		t.cancel()
	}
	for _, t := range live {
		<-t.done
	}
	m.logger.Debug("task manager shut down", "drained", len(live))
}

// sweepLoop periodically purges registry entries whose task reached a
// terminal state but whose completion path did not remove them. Completion
// normally cleans up; this is the defensive second pass.
func (m *Manager) sweepLoop(interval time.Duration) {
	defer close(m.sweepDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.sweepStop:
			return
		}
	}
}

func (m *Manager) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, t := range m.tasks {
		select {
		case <-t.done:
			m.logger.Debug("sweeping finished task from registry", "key", key, "status", t.status.String())
			delete(m.tasks, key)
		default:
		}
	}
}
