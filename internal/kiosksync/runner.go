package kiosksync

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/gnomeskillet/signin-kiosk/internal/remote"
	"github.com/gnomeskillet/signin-kiosk/internal/store"
)

// State is the lifecycle state of a background run.
type State int

const (
	// StateNotFound means the handle doesn't correspond to any run
	// the runner still knows about.
	StateNotFound State = iota
	// StateRunning means the run is in flight.
	StateRunning
	// StateSucceeded means the run finished with every attempted
	// operation successful.
	StateSucceeded
	// StateFailed means the run finished with failures, or could not
	// read local or remote state at all.
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateNotFound:
		return "not-found"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Handle identifies one background run.
type Handle struct {
	// ID is unique per run, so a superseded run's handle stops
	// matching once a new run for the same day replaces it.
	ID string
	// Date is the day the run reconciles.
	Date string
}

// Status is what the runner reports for a handle.
type Status struct {
	State State
	// Result is set once the run is terminal. Err carries run-level
	// failures (local load, remote listing); per-item failures live
	// inside Result.
	Result *Result
	Err    error
}

// Events receives run lifecycle notifications. All methods are called
// from the run's goroutine; implementations must not block.
type Events interface {
	SyncStarted(date string)
	SyncProgress(date, name string, done, total int, err error)
	SyncFinished(date string, st Status)
}

// NopEvents is an Events that ignores everything.
type NopEvents struct{}

func (NopEvents) SyncStarted(string)                           {}
func (NopEvents) SyncProgress(string, string, int, int, error) {}
func (NopEvents) SyncFinished(string, Status)                  {}

// Runner schedules sync runs off the interactive path.
//
// At most one run per day is in flight at a time: Start for a day
// that is already running returns the existing handle instead of
// launching a duplicate, which is what prevents double-uploads from
// repeated trigger invocations. Terminal results are retained until a
// new Start for the same day replaces them.
type Runner struct {
	st     *store.Store
	rs     remote.Storage
	events Events
	logger *log.Logger

	mu   sync.Mutex
	runs map[string]*run // date -> most recent run
}

type run struct {
	handle Handle
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	status Status
}

// NewRunner creates a Runner over a store and remote capability. If
// events is nil no notifications are sent; if logger is nil a default
// stderr logger is used.
func NewRunner(st *store.Store, rs remote.Storage, events Events, logger *log.Logger) *Runner {
	if events == nil {
		events = NopEvents{}
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[runner] ", log.LstdFlags)
	}
	return &Runner{
		st:     st,
		rs:     rs,
		events: events,
		logger: logger,
		runs:   make(map[string]*run),
	}
}

// Start begins a background run for the given day and returns
// immediately. If a run for that day is already in flight, its handle
// is returned instead of starting another.
func (r *Runner) Start(date string) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.runs[date]; ok {
		cur.mu.Lock()
		running := cur.status.State == StateRunning
		cur.mu.Unlock()
		if running {
			r.logger.Printf("Run already in flight for %s, reusing %s", date, cur.handle.ID)
			return cur.handle
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	nr := &run{
		handle: Handle{ID: uuid.NewString(), Date: date},
		cancel: cancel,
		done:   make(chan struct{}),
		status: Status{State: StateRunning},
	}
	r.runs[date] = nr

	r.logger.Printf("Starting run %s for %s", nr.handle.ID, date)
	go r.execute(ctx, nr)

	return nr.handle
}

// Status reports the state of a run. Handles from superseded runs
// yield StateNotFound.
func (r *Runner) Status(h Handle) Status {
	r.mu.Lock()
	cur, ok := r.runs[h.Date]
	r.mu.Unlock()

	if !ok || cur.handle.ID != h.ID {
		return Status{State: StateNotFound}
	}

	cur.mu.Lock()
	defer cur.mu.Unlock()
	return cur.status
}

// Cancel requests a best-effort stop of a run. In-flight uploads are
// not interrupted; no further items start once the request is
// observed. Cancel of a finished or unknown run is a no-op.
func (r *Runner) Cancel(h Handle) {
	r.mu.Lock()
	cur, ok := r.runs[h.Date]
	r.mu.Unlock()

	if ok && cur.handle.ID == h.ID {
		cur.cancel()
	}
}

// Wait blocks until the run for a handle reaches a terminal state.
// Intended for one-shot CLI use and tests; the kiosk foreground polls
// Status instead.
func (r *Runner) Wait(h Handle) Status {
	r.mu.Lock()
	cur, ok := r.runs[h.Date]
	r.mu.Unlock()

	if !ok || cur.handle.ID != h.ID {
		return Status{State: StateNotFound}
	}
	<-cur.done
	return r.Status(h)
}

// execute performs one full load -> list -> plan -> execute cycle.
// The store is only read, never written, so the foreground keeps
// accepting sign-ins while this runs.
func (r *Runner) execute(ctx context.Context, nr *run) {
	defer nr.cancel()
	defer close(nr.done)

	date := nr.handle.Date
	r.events.SyncStarted(date)

	finish := func(st Status) {
		nr.mu.Lock()
		nr.status = st
		nr.mu.Unlock()
		r.events.SyncFinished(date, st)
	}

	day, err := r.st.Load(date)
	if err != nil {
		r.logger.Printf("Run %s: local load failed: %v", nr.handle.ID, err)
		finish(Status{State: StateFailed, Err: fmt.Errorf("loading day folder: %w", err)})
		return
	}

	inv, err := r.rs.ListExisting(ctx, date)
	if err != nil {
		r.logger.Printf("Run %s: remote listing failed: %v", nr.handle.ID, err)
		finish(Status{State: StateFailed, Err: fmt.Errorf("listing remote day: %w", err)})
		return
	}

	plan := BuildPlan(day, inv)
	exec := NewExecutor(r.rs, r.logger, func(name string, done, total int, err error) {
		r.events.SyncProgress(date, name, done, total, err)
	})
	res := exec.Execute(ctx, day, plan)

	st := Status{Result: &res}
	if res.Clean() {
		st.State = StateSucceeded
	} else {
		st.State = StateFailed
	}
	finish(st)
}
