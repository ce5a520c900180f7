package daemon

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gnomeskillet/signin-kiosk/internal/kiosksync"
	"github.com/gnomeskillet/signin-kiosk/internal/store"
)

// fakeTrigger counts Start calls per date.
type fakeTrigger struct {
	mu    sync.Mutex
	dates []string
}

func (f *fakeTrigger) Start(date string) kiosksync.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dates = append(f.dates, date)
	return kiosksync.Handle{ID: "fake", Date: date}
}

func (f *fakeTrigger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dates)
}

func testConfig() *Config {
	return &Config{
		SyncInterval:     time.Hour, // keep periodic out of the way
		DebounceInterval: 50 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon-test] ", 0),
		Now:              time.Now,
	}
}

// startDaemon runs a daemon until the test ends.
func startDaemon(t *testing.T, st *store.Store, trig Trigger, cfg *Config) {
	t.Helper()

	d, err := New(st, trig, cfg)
	if err != nil {
		t.Fatalf("failed to create daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := d.Run(ctx); err != nil {
			t.Errorf("daemon run failed: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestDaemonSyncsOnStartup(t *testing.T) {
	st := store.New(t.TempDir(), log.New(os.Stderr, "", 0))
	trig := &fakeTrigger{}

	startDaemon(t, st, trig, testConfig())

	if !waitFor(t, 2*time.Second, func() bool { return trig.count() >= 1 }) {
		t.Fatal("no startup sync triggered")
	}
}

func TestDaemonSyncsOnChange(t *testing.T) {
	st := store.New(t.TempDir(), log.New(os.Stderr, "", 0))
	trig := &fakeTrigger{}

	startDaemon(t, st, trig, testConfig())
	waitFor(t, 2*time.Second, func() bool { return trig.count() >= 1 })
	base := trig.count()

	// A sign-in creates the day folder and rewrites the log; the
	// daemon must notice and trigger a sync once the burst settles.
	if _, err := st.Append("101", "A. Smith", time.Now(), nil); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if !waitFor(t, 5*time.Second, func() bool { return trig.count() > base }) {
		t.Fatal("change did not trigger a sync")
	}
}

func TestDaemonDebouncesBursts(t *testing.T) {
	st := store.New(t.TempDir(), log.New(os.Stderr, "", 0))
	trig := &fakeTrigger{}

	startDaemon(t, st, trig, testConfig())
	waitFor(t, 2*time.Second, func() bool { return trig.count() >= 1 })
	base := trig.count()

	// Ten rapid sign-ins within one debounce window.
	for i, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"} {
		if _, err := st.Append(id, "Student "+id, time.Now().Add(time.Duration(i)*time.Second), nil); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	if !waitFor(t, 5*time.Second, func() bool { return trig.count() > base }) {
		t.Fatal("burst did not trigger a sync")
	}
	// Let things settle, then check the burst collapsed to far fewer
	// triggers than writes.
	time.Sleep(300 * time.Millisecond)
	if got := trig.count() - base; got > 3 {
		t.Errorf("burst of 10 writes caused %d syncs, want a debounced handful", got)
	}
}
