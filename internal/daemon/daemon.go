package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"scribe/internal/api"
	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/store"
)

// Daemon coordinates the drain loop and the API server, and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	processor *jobs.Processor
	apiServer *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	drained chan struct{}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, processor *jobs.Processor, apiServer *api.Server, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || processor == nil {
		return nil, errors.New("daemon requires config, store, and processor")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "scribed.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     st,
		processor: processor,
		apiServer: apiServer,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the API server and drain
// loop in the background.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another scribe daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.drained = make(chan struct{})

	if d.apiServer != nil {
		if err := d.apiServer.Start(runCtx); err != nil {
			cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("start api server: %w", err)
		}
	}

	go func() {
		defer close(d.drained)
		d.drainLoop(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("scribe daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background processing and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.drained != nil {
		<-d.drained
		d.drained = nil
	}
	if d.apiServer != nil {
		d.apiServer.Stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("scribe daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}
