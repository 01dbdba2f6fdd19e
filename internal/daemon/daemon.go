// Package daemon provides the watch daemon that drains the pending store
// into the board without user interaction.
//
// The daemon:
//  1. Drains once on startup
//  2. Watches the data directory for writes to the store
//  3. Drains newly queued tasks after the writes settle (debounce)
//  4. Retries failed tasks on a fixed interval
//  5. Skips every drain while the board is unreachable
//
// All drains run on one goroutine, so two uploads never overlap.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tasklist-cli/tasklist/internal/probe"
	"github.com/tasklist-cli/tasklist/internal/sync"
	"github.com/tasklist-cli/tasklist/internal/types"
)

// Config holds configuration for the daemon.
type Config struct {
	// Interval is how often failed tasks are retried.
	Interval time.Duration

	// Debounce is how long the store must be quiet before a drain starts.
	// This batches rapid writes together.
	Debounce time.Duration

	// Logger for daemon activity
	Logger *log.Logger

	// OnDrain, when set, is called after every drain attempt.
	OnDrain func(*sync.DrainResult, error)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Interval: time.Minute,
		Debounce: 500 * time.Millisecond,
		Logger:   log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Store counts queued tasks. *db.DB satisfies it.
type Store interface {
	Path() string
	CountTasksContext(ctx context.Context, statuses ...types.Status) (int, error)
}

// Drainer uploads queued tasks. sync.Syncer satisfies it.
type Drainer interface {
	Upload(ctx context.Context) (*sync.DrainResult, error)
}

// trigger names what started a drain.
type trigger int

const (
	triggerStartup trigger = iota
	triggerWrite
	triggerInterval
)

func (t trigger) String() string {
	switch t {
	case triggerStartup:
		return "startup"
	case triggerWrite:
		return "store write"
	case triggerInterval:
		return "retry interval"
	}
	return "unknown"
}

// Daemon watches the pending store and drains it.
type Daemon struct {
	store   Store
	drainer Drainer
	prober  probe.Prober
	config  *Config

	dir     string
	base    string
	watcher *fsnotify.Watcher

	lastWrite   time.Time
	lastWriteMu gosync.Mutex

	writes chan struct{}
	// quietUntil suppresses write-triggered drains after a drain was
	// aborted, so a board that accepts pings but refuses uploads is not
	// hammered on every store write. Only the run goroutine touches it.
	quietUntil time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	wg       gosync.WaitGroup
	stopOnce gosync.Once
}

// New creates a daemon for the store file reported by store.Path().
//
// Use Start() to begin watching and draining.
func New(store Store, drainer Drainer, prober probe.Prober, config *Config) (*Daemon, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if drainer == nil {
		return nil, fmt.Errorf("drainer cannot be nil")
	}
	if prober == nil {
		return nil, fmt.Errorf("prober cannot be nil")
	}
	path := store.Path()
	if path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.Debounce <= 0 {
		config.Debounce = def.Debounce
	}
	if config.Logger == nil {
		config.Logger = def.Logger
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		store:   store,
		drainer: drainer,
		prober:  prober,
		config:  config,
		dir:     filepath.Dir(path),
		base:    filepath.Base(path),
		watcher: watcher,
		writes:  make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// This blocks until ctx is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	// SQLite replaces its journal files, so watch the directory rather
	// than the database file itself.
	if err := d.watcher.Add(d.dir); err != nil {
		_ = d.Stop()
		return fmt.Errorf("failed to watch data directory: %w", err)
	}
	d.config.Logger.Printf("Watching: %s", filepath.Join(d.dir, d.base))

	d.wg.Add(3)
	go d.watchFileEvents()
	go d.processWrites()
	go d.run()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon. A drain in progress is cancelled;
// tasks it leaves in flight are recovered by the next drain.
func (d *Daemon) Stop() error {
	d.stopOnce.Do(func() {
		d.config.Logger.Println("Stopping daemon")
		d.cancel()
		if err := d.watcher.Close(); err != nil {
			d.config.Logger.Printf("Error closing watcher: %v", err)
		}
		d.wg.Wait()
		d.config.Logger.Println("Daemon stopped")
	})
	return nil
}

// isStoreFile reports whether name is the database or one of its journal
// files (-wal, -shm, -journal).
func (d *Daemon) isStoreFile(name string) bool {
	base := filepath.Base(name)
	return base == d.base || strings.HasPrefix(base, d.base+"-")
}

// watchFileEvents records the time of the latest write to the store.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

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
			if !d.isStoreFile(event.Name) {
				continue
			}

			d.lastWriteMu.Lock()
			d.lastWrite = time.Now()
			d.lastWriteMu.Unlock()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// processWrites signals the run loop once the store has been quiet for
// the debounce interval.
func (d *Daemon) processWrites() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.lastWriteMu.Lock()
			settled := !d.lastWrite.IsZero() && time.Since(d.lastWrite) >= d.config.Debounce
			if settled {
				d.lastWrite = time.Time{}
			}
			d.lastWriteMu.Unlock()

			if settled {
				select {
				case d.writes <- struct{}{}:
				default:
				}
			}
		}
	}
}

// run serializes drains.
func (d *Daemon) run() {
	defer d.wg.Done()

	d.drain(triggerStartup)

	ticker := time.NewTicker(d.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-d.writes:
			d.drain(triggerWrite)
		case <-ticker.C:
			d.drain(triggerInterval)
		}
	}
}

// drain uploads queued tasks when there is work and the board answers.
//
// Store writes only start a drain for pending tasks. Failed tasks wait for
// the retry interval, which keeps a rejected task from being retried on
// every write the drain itself makes.
func (d *Daemon) drain(t trigger) {
	if t == triggerWrite && time.Now().Before(d.quietUntil) {
		return
	}

	statuses := []types.Status{types.StatusPending, types.StatusFailed}
	if t == triggerWrite {
		statuses = statuses[:1]
	}
	n, err := d.store.CountTasksContext(d.ctx, statuses...)
	if err != nil {
		d.config.Logger.Printf("Error counting queued tasks: %v", err)
		d.report(nil, err)
		return
	}
	if n == 0 {
		return
	}

	if !d.prober.IsOnline(d.ctx) {
		d.config.Logger.Printf("Board unreachable, %d task(s) stay queued", n)
		return
	}

	d.config.Logger.Printf("Draining %d task(s) (%s)", n, t)
	res, err := d.drainer.Upload(d.ctx)
	switch {
	case err != nil:
		d.config.Logger.Printf("Error draining: %v", err)
	case res.Aborted != nil:
		d.quietUntil = time.Now().Add(d.config.Interval)
		d.config.Logger.Printf("Drain stopped after %d upload(s): %v (%d remaining)",
			len(res.Succeeded), res.Aborted, len(res.Remaining))
	default:
		d.config.Logger.Printf("Uploaded %d task(s), %d rejected", len(res.Succeeded), len(res.Rejected))
	}
	for _, r := range resRejected(res) {
		d.config.Logger.Printf("Task %d rejected: %v", r.TaskID, r.Err)
	}
	d.report(res, err)
}

func (d *Daemon) report(res *sync.DrainResult, err error) {
	if d.config.OnDrain != nil {
		d.config.OnDrain(res, err)
	}
}

func resRejected(res *sync.DrainResult) []sync.Rejection {
	if res == nil {
		return nil
	}
	return res.Rejected
}
