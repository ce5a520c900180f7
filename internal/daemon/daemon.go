// Package daemon runs unattended kiosk syncing.
//
// The daemon:
//  1. Watches today's day folder for new sign-ins and photos
//  2. Debounces change bursts into a single sync trigger
//  3. Periodically triggers a sync regardless of changes
//  4. Handles graceful shutdown
//
// It only ever triggers the background runner; the runner's
// one-run-per-day rule is what keeps a watch event racing a periodic
// tick from double-uploading.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnomeskillet/signin-kiosk/internal/kiosksync"
	"github.com/gnomeskillet/signin-kiosk/internal/store"
)

// Trigger starts a background sync run for a day. Satisfied by
// *kiosksync.Runner.
type Trigger interface {
	Start(date string) kiosksync.Handle
}

// Config holds daemon configuration.
type Config struct {
	// SyncInterval is how often to trigger a sync even without
	// observed changes.
	SyncInterval time.Duration

	// DebounceInterval is how long a change burst must be quiet
	// before it triggers a sync.
	DebounceInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger

	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SyncInterval:     15 * time.Minute,
		DebounceInterval: 2 * time.Second,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
		Now:              time.Now,
	}
}

// Daemon watches the data root and keeps today's folder synced.
type Daemon struct {
	st      *store.Store
	trigger Trigger
	config  *Config

	watcher *fsnotify.Watcher
	watchMu sync.Mutex
	watched map[string]bool

	changedAt time.Time
	changedMu sync.Mutex
	hasChange bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Daemon over a store and a sync trigger.
func New(st *store.Store, trigger Trigger, config *Config) (*Daemon, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if trigger == nil {
		return nil, fmt.Errorf("trigger cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Daemon{
		st:      st,
		trigger: trigger,
		config:  config,
		watcher: watcher,
		watched: make(map[string]bool),
	}, nil
}

// Run starts the daemon and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, d.cancel = context.WithCancel(ctx)
	defer d.cancel()

	d.config.Logger.Printf("Starting daemon, watching under %s", d.st.Root())

	// The data root must exist before fsnotify can watch it; day
	// folders below it appear lazily.
	if err := os.MkdirAll(d.st.Root(), 0755); err != nil {
		return fmt.Errorf("failed to create data root: %w", err)
	}
	if err := d.watchDir(d.st.Root()); err != nil {
		return err
	}
	d.ensureDayWatches()

	// Sync whatever is already pending from before the daemon came up.
	d.fireSync("startup")

	d.wg.Add(2)
	go d.watchFileEvents(ctx)
	go d.tickLoop(ctx)

	<-ctx.Done()
	d.config.Logger.Println("Shutdown signal received")

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}
	d.wg.Wait()
	d.config.Logger.Println("Daemon stopped")
	return nil
}

// watchFileEvents queues filesystem changes for debounced syncing.
func (d *Daemon) watchFileEvents(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			// A new day folder (or its photos dir) needs watching
			// before its contents generate events.
			d.ensureDayWatches()
			d.noteChange()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// noteChange records that something under the data root changed.
func (d *Daemon) noteChange() {
	d.changedMu.Lock()
	defer d.changedMu.Unlock()
	d.hasChange = true
	d.changedAt = d.config.Now()
}

// tickLoop drives debounced change syncs and the periodic sync.
func (d *Daemon) tickLoop(ctx context.Context) {
	defer d.wg.Done()

	debounce := time.NewTicker(d.config.DebounceInterval / 2)
	defer debounce.Stop()
	periodic := time.NewTicker(d.config.SyncInterval)
	defer periodic.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-debounce.C:
			d.ensureDayWatches()
			d.changedMu.Lock()
			fire := d.hasChange && d.config.Now().Sub(d.changedAt) >= d.config.DebounceInterval
			if fire {
				d.hasChange = false
			}
			d.changedMu.Unlock()
			if fire {
				d.fireSync("change")
			}

		case <-periodic.C:
			d.fireSync("interval")
		}
	}
}

// fireSync triggers a background run for today.
func (d *Daemon) fireSync(reason string) {
	date := d.config.Now().Format(store.DateLayout)
	h := d.trigger.Start(date)
	d.config.Logger.Printf("Triggered sync for %s (%s): run %s", date, reason, h.ID)
}

// ensureDayWatches adds watches for today's folder and its photos
// directory once they exist. Watching re-evaluates the current date
// every call, so the daemon rolls into a new day folder without a
// restart.
func (d *Daemon) ensureDayWatches() {
	d.watchMu.Lock()
	defer d.watchMu.Unlock()

	date := d.config.Now().Format(store.DateLayout)
	dayDir := d.st.DayPath(date)
	for _, dir := range []string{dayDir, filepath.Join(dayDir, "photos")} {
		if d.watched[dir] {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := d.watchDir(dir); err != nil {
			d.config.Logger.Printf("Failed to watch %s: %v", dir, err)
		}
	}
}

func (d *Daemon) watchDir(dir string) error {
	if err := d.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	d.watched[dir] = true
	d.config.Logger.Printf("Watching: %s", dir)
	return nil
}
