package kiosksync

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gnomeskillet/signin-kiosk/internal/remote"
)

// gatedStorage wraps MemStorage and blocks every Put until released,
// so tests can hold a run in flight deterministically. entered is
// signaled once the first Put is in flight.
type gatedStorage struct {
	*remote.MemStorage
	gate      chan struct{}
	entered   chan struct{}
	enterOnce sync.Once
	gateOnce  sync.Once
}

func newGatedStorage() *gatedStorage {
	return &gatedStorage{
		MemStorage: remote.NewMemStorage(),
		gate:       make(chan struct{}),
		entered:    make(chan struct{}),
	}
}

func (g *gatedStorage) release() {
	g.gateOnce.Do(func() { close(g.gate) })
}

func (g *gatedStorage) Put(ctx context.Context, date, name string, r io.Reader) error {
	g.enterOnce.Do(func() { close(g.entered) })
	select {
	case <-g.gate:
	case <-time.After(5 * time.Second):
		return fmt.Errorf("test gate never released")
	}
	return g.MemStorage.Put(ctx, date, name, r)
}

func TestRunnerSucceeds(t *testing.T) {
	st, _ := seedScenario(t)
	rs := remote.NewMemStorage()
	r := NewRunner(st, rs, nil, testLogger())

	h := r.Start(testDate)
	status := r.Wait(h)

	if status.State != StateSucceeded {
		t.Fatalf("state = %s, want succeeded (err=%v)", status.State, status.Err)
	}
	if status.Result == nil || len(status.Result.Uploaded) != 1 {
		t.Errorf("result = %+v, want one uploaded photo", status.Result)
	}
	if _, ok := rs.Object(testDate, "signins_"+testDate+".csv"); !ok {
		t.Error("log not uploaded")
	}

	// Terminal state is retained until superseded.
	if again := r.Status(h); again.State != StateSucceeded {
		t.Errorf("terminal state not retained: %s", again.State)
	}
}

func TestRunnerStartWhileRunningReturnsSameHandle(t *testing.T) {
	st, _ := seedScenario(t)
	rs := newGatedStorage()
	r := NewRunner(st, rs, nil, testLogger())

	h1 := r.Start(testDate)
	h2 := r.Start(testDate)
	if h1.ID != h2.ID {
		t.Errorf("second Start launched a duplicate run: %s vs %s", h1.ID, h2.ID)
	}
	if got := r.Status(h1).State; got != StateRunning {
		t.Errorf("state = %s, want running", got)
	}

	rs.release()
	if status := r.Wait(h1); status.State != StateSucceeded {
		t.Fatalf("state = %s, want succeeded", status.State)
	}

	// Once terminal, a new Start replaces the run and the old handle
	// stops resolving.
	h3 := r.Start(testDate)
	if h3.ID == h1.ID {
		t.Error("new run reused the old handle")
	}
	r.Wait(h3)
	if got := r.Status(h1).State; got != StateNotFound {
		t.Errorf("superseded handle state = %s, want not-found", got)
	}
}

func TestRunnerFailsOnRemoteListError(t *testing.T) {
	st, _ := seedScenario(t)
	rs := remote.NewMemStorage()
	rs.FailList(fmt.Errorf("remote unreachable"))
	r := NewRunner(st, rs, nil, testLogger())

	status := r.Wait(r.Start(testDate))
	if status.State != StateFailed {
		t.Fatalf("state = %s, want failed", status.State)
	}
	if status.Err == nil {
		t.Error("run-level failure carries no error")
	}
}

func TestRunnerFailedWhenItemsFail(t *testing.T) {
	st, _ := seedScenario(t)
	rs := remote.NewMemStorage()
	rs.FailPut("Smith_A_0902_101.jpg", fmt.Errorf("connection reset"))
	r := NewRunner(st, rs, nil, testLogger())

	status := r.Wait(r.Start(testDate))
	if status.State != StateFailed {
		t.Fatalf("state = %s, want failed", status.State)
	}
	if status.Result == nil || len(status.Result.Failed) != 1 {
		t.Fatalf("result = %+v, want one failed item", status.Result)
	}
	// The log still went out.
	if status.Result.CSV != CSVSuccess {
		t.Errorf("csv = %s, want success", status.Result.CSV)
	}
}

func TestRunnerCancel(t *testing.T) {
	st, _ := seedScenario(t)
	rs := newGatedStorage()
	r := NewRunner(st, rs, nil, testLogger())

	h := r.Start(testDate)
	<-rs.entered // first upload is in flight
	r.Cancel(h)
	rs.release()

	status := r.Wait(h)
	if status.State != StateFailed {
		t.Fatalf("state = %s, want failed after cancel", status.State)
	}
	if status.Result == nil || !status.Result.Canceled {
		t.Errorf("result = %+v, want canceled", status.Result)
	}
}

func TestRunnerStatusUnknownHandle(t *testing.T) {
	st, _ := seedScenario(t)
	r := NewRunner(st, remote.NewMemStorage(), nil, testLogger())

	if got := r.Status(Handle{ID: "nope", Date: testDate}).State; got != StateNotFound {
		t.Errorf("state = %s, want not-found", got)
	}
}

// recordingEvents captures run notifications for assertions.
type recordingEvents struct {
	mu       sync.Mutex
	started  []string
	progress int
	finished []State
}

func (e *recordingEvents) SyncStarted(date string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = append(e.started, date)
}

func (e *recordingEvents) SyncProgress(date, name string, done, total int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress++
}

func (e *recordingEvents) SyncFinished(date string, st Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished = append(e.finished, st.State)
}

func TestRunnerEmitsEvents(t *testing.T) {
	st, _ := seedScenario(t)
	ev := &recordingEvents{}
	r := NewRunner(st, remote.NewMemStorage(), ev, testLogger())

	r.Wait(r.Start(testDate))

	ev.mu.Lock()
	defer ev.mu.Unlock()
	if len(ev.started) != 1 || ev.started[0] != testDate {
		t.Errorf("started events = %v", ev.started)
	}
	if ev.progress != 2 { // one photo + the log
		t.Errorf("progress events = %d, want 2", ev.progress)
	}
	if len(ev.finished) != 1 || ev.finished[0] != StateSucceeded {
		t.Errorf("finished events = %v", ev.finished)
	}
}
