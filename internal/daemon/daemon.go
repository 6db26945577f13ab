// Package daemon provides the background process that keeps the local store
// reconciled with the remote.
//
// The daemon:
// 1. Runs a sync pass on boot and on a fixed interval
// 2. Watches the store file so writes from another process schedule a sync
// 3. Triggers a sync when connectivity returns after an offline stretch
// 4. Periodically refreshes store stats for observers, read-only
// 5. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/example/rdo/internal/store"
	"github.com/example/rdo/internal/sync"
)

// Config holds configuration for the daemon.
type Config struct {
	// SyncInterval is how often a periodic sync pass runs.
	SyncInterval time.Duration

	// StatsInterval is how often store stats are refreshed for observers.
	StatsInterval time.Duration

	// DebounceInterval is how long to wait after a store-file write before
	// syncing. This batches rapid updates together.
	DebounceInterval time.Duration

	// ProbeInterval is how often connectivity is checked while offline.
	ProbeInterval time.Duration

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SyncInterval:     5 * time.Minute,
		StatsInterval:    5 * time.Second,
		DebounceInterval: 2 * time.Second,
		ProbeInterval:    15 * time.Second,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates store watching and periodic synchronization.
type Daemon struct {
	store  *store.Store
	syncer *sync.Syncer
	config *Config

	watcher   *fsnotify.Watcher
	dirtyAt   time.Time
	dirtyMu   stdsync.Mutex
	wasOnline atomic.Bool

	// OnResult and OnStats, when set, receive every sync outcome and stats
	// refresh. The dashboard wires these to its broadcast channel. Set them
	// before Start.
	OnResult func(sync.Result)
	OnStats  func(store.Stats)

	ctx    context.Context
	cancel context.CancelFunc
	wg     stdsync.WaitGroup
}

// New creates a new Daemon instance. Use Start() to begin syncing.
func New(st *store.Store, syncer *sync.Syncer, config *Config) (*Daemon, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if syncer == nil {
		return nil, fmt.Errorf("syncer cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		store:   st,
		syncer:  syncer,
		config:  config,
		watcher: watcher,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// This blocks until ctx is cancelled or an error occurs.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	// Initial sync. Offline here is fine; the probe loop retries.
	res := d.syncer.SyncNow(ctx)
	d.wasOnline.Store(res.Ok)
	d.publish(res)
	if !res.Ok {
		d.config.Logger.Printf("Initial sync did not complete: %s", res.Message)
	}

	// Watch the store's directory: SQLite writes land on the -wal file,
	// not the main database file.
	dir := filepath.Dir(d.store.Path())
	if err := d.watcher.Add(dir); err != nil {
		d.cancel()
		if closeErr := d.watcher.Close(); closeErr != nil {
			d.config.Logger.Printf("Error closing watcher: %v", closeErr)
		}
		return fmt.Errorf("failed to watch store directory: %w", err)
	}
	d.config.Logger.Printf("Watching: %s", dir)

	d.wg.Add(4)
	go d.watchFileEvents()
	go d.processDirtyStore()
	go d.periodicSync()
	go d.refreshStats()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

func (d *Daemon) publish(res sync.Result) {
	if d.OnResult != nil {
		d.OnResult(res)
	}
}

// syncOnce runs one pass and tracks the offline->online edge.
func (d *Daemon) syncOnce(reason string) {
	res := d.syncer.SyncNow(d.ctx)
	if res.Ok {
		d.config.Logger.Printf("Sync (%s): %d jobs uploaded", reason, res.Synced)
	} else if res.Message != "sync already running" {
		d.config.Logger.Printf("Sync (%s) failed: %s", reason, res.Message)
	}
	d.wasOnline.Store(res.Ok)
	d.publish(res)
}

// watchFileEvents monitors filesystem events and marks the store dirty.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	base := filepath.Base(d.store.Path())
	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if name != base && name != base+"-wal" {
				continue
			}
			d.dirtyMu.Lock()
			d.dirtyAt = time.Now()
			d.dirtyMu.Unlock()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// processDirtyStore syncs after store writes settle down.
func (d *Daemon) processDirtyStore() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.dirtyMu.Lock()
			dirty := !d.dirtyAt.IsZero() && time.Since(d.dirtyAt) >= d.config.DebounceInterval
			if dirty {
				d.dirtyAt = time.Time{}
			}
			d.dirtyMu.Unlock()

			if dirty {
				d.syncOnce("store changed")
			}
		}
	}
}

// periodicSync runs the interval sync and, while offline, probes for the
// reconnect edge at a faster cadence.
func (d *Daemon) periodicSync() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.SyncInterval)
	defer ticker.Stop()
	probe := time.NewTicker(d.config.ProbeInterval)
	defer probe.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.syncOnce("interval")

		case <-probe.C:
			if d.wasOnline.Load() {
				continue
			}
			d.syncOnce("reconnect")
		}
	}
}

// refreshStats periodically reads store counters for observers. It never
// mutates anything.
func (d *Daemon) refreshStats() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			if d.OnStats == nil {
				continue
			}
			stats, err := d.store.GetStats(d.ctx)
			if err != nil {
				d.config.Logger.Printf("Error reading stats: %v", err)
				continue
			}
			d.OnStats(stats)
		}
	}
}
