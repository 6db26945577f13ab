package daemon

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	"github.com/example/rdo/internal/remote"
	"github.com/example/rdo/internal/store"
	"github.com/example/rdo/internal/sync"
)

func setupDaemon(t *testing.T, config *Config) (*Daemon, *store.Store, *remote.Memory) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	rem := remote.NewMemory()
	syncer := sync.New(st, rem, log.New(io.Discard, "", 0))

	d, err := New(st, syncer, config)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return d, st, rem
}

func quietConfig() *Config {
	c := DefaultConfig()
	c.Logger = log.New(io.Discard, "", 0)
	c.SyncInterval = 50 * time.Millisecond
	c.StatsInterval = 20 * time.Millisecond
	c.DebounceInterval = 10 * time.Millisecond
	c.ProbeInterval = 20 * time.Millisecond
	return c
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Error("expected error for nil store")
	}

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	defer st.Close()

	if _, err := New(st, nil, nil); err == nil {
		t.Error("expected error for nil syncer")
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.SyncInterval <= 0 || c.StatsInterval <= 0 || c.DebounceInterval <= 0 || c.ProbeInterval <= 0 {
		t.Errorf("defaults must be positive: %+v", c)
	}
	if c.Logger == nil {
		t.Error("default logger missing")
	}
}

func TestStartStop(t *testing.T) {
	d, _, _ := setupDaemon(t, quietConfig())

	var mu stdsync.Mutex
	var results []sync.Result
	var stats []store.Stats
	done := make(chan struct{})
	d.OnResult = func(r sync.Result) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	}
	d.OnStats = func(s store.Stats) {
		mu.Lock()
		defer mu.Unlock()
		stats = append(stats, s)
		select {
		case <-done:
		default:
			close(done)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no stats refresh within 2s")
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop within 2s")
	}

	if len(results) == 0 {
		t.Error("initial sync result never published")
	}
	if len(stats) == 0 {
		t.Error("no stats published")
	}
}

func TestReconnectTriggersSync(t *testing.T) {
	d, _, rem := setupDaemon(t, quietConfig())
	rem.SetOffline(true)

	online := make(chan struct{})
	d.OnResult = func(r sync.Result) {
		if r.Ok {
			select {
			case <-online:
			default:
				close(online)
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()

	// Let the daemon observe the offline state, then restore connectivity.
	time.Sleep(30 * time.Millisecond)
	rem.SetOffline(false)

	select {
	case <-online:
	case <-time.After(2 * time.Second):
		t.Fatal("reconnect probe never produced a successful sync")
	}
	cancel()
	<-errCh
}

func TestStartCleansUpWhenWatchFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	st, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	rem := remote.NewMemory()
	syncer := sync.New(st, rem, log.New(io.Discard, "", 0))
	d, err := New(st, syncer, quietConfig())
	if err != nil {
		t.Fatalf("Failed to create daemon: %v", err)
	}

	// Removing the watched directory makes watcher.Add fail.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err == nil {
		t.Fatal("Start should fail when the store directory cannot be watched")
	}

	select {
	case <-d.ctx.Done():
	default:
		t.Error("daemon context should be cancelled after a failed Start")
	}
	if err := d.watcher.Add(t.TempDir()); err == nil {
		t.Error("watcher should be closed after a failed Start")
	}
}
