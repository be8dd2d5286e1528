package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"cadence/internal/api"
	"cadence/internal/config"
	"cadence/internal/dataset"
	"cadence/internal/journal"
	"cadence/internal/logging"
	"cadence/internal/preflight"
)

// Daemon coordinates the labeling server: the loaded collection, the autosave
// journal, live annotator sessions, and the HTTP API. It enforces
// single-instance execution through a lock file next to the journal.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	col     *dataset.Collection
	loadErr error

	journal   *journal.Store
	reconcile *api.ReconcileService
	sessions  *registry

	lockPath string
	lock     *flock.Flock

	apiServer *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool   `json:"running"`
	Dataset        string `json:"dataset"`
	Mode           string `json:"mode"`
	Clips          int    `json:"clips"`
	Battles        int    `json:"battles"`
	InvalidBattles int    `json:"invalidBattles"`
	SourceError    string `json:"sourceError,omitempty"`
	JournalPath    string `json:"journalPath"`
	LockFilePath   string `json:"lockFilePath"`
	LiveSessions   int    `json:"liveSessions"`
}

// New constructs a daemon. A dataset that fails to load is recorded rather
// than fatal: the daemon still starts so annotators see the source error
// instead of a connection refused, but no sessions can open until the source
// is fixed and the daemon restarted.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		lockPath: filepath.Join(filepath.Dir(cfg.Paths.JournalPath), "cadenced.lock"),
	}
	d.lock = flock.New(d.lockPath)

	col, err := dataset.LoadFile(cfg.Dataset.Path, cfg.Dataset.ID)
	if err != nil {
		d.loadErr = err
		logger.Error("dataset load failed", logging.Error(err),
			slog.String(logging.FieldDataset, cfg.Dataset.ID))
	} else {
		d.col = col
		logger.Info("dataset loaded",
			slog.String(logging.FieldDataset, col.SourceID),
			slog.Int("clips", col.Len()),
			slog.Int("battles", len(col.Battles())),
			slog.Int("invalid_battles", col.InvalidBattles()))
	}

	store, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		// Autosave is best effort; exported snapshots stay the durable artifact.
		logger.Warn("journal unavailable, autosave disabled", logging.Error(err))
	} else {
		d.journal = store
	}

	d.reconcile = api.NewReconcileService(d.col, logger)
	d.sessions = newRegistry(cfg, d.col, d.journal, logger)

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiServer = srv
	return d, nil
}

// Start acquires the instance lock, runs preflight checks, and brings the API
// server up.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cadence daemon instance is already running")
	}

	results := preflight.RunAll(ctx, d.cfg)
	for _, result := range results {
		if result.Passed {
			d.logger.Info("preflight check passed", slog.String("check", result.Name))
			continue
		}
		d.logger.Warn("preflight check failed",
			slog.String("check", result.Name),
			slog.String("detail", result.Detail))
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.apiServer != nil {
		if err := d.apiServer.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("cadence daemon started", slog.String("lock", d.lockPath))
	return nil
}

// Stop shuts the API server down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.apiServer != nil {
		d.apiServer.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("cadence daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.journal.Close()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		Dataset:      d.cfg.Dataset.ID,
		Mode:         d.cfg.Dataset.Mode,
		JournalPath:  d.cfg.Paths.JournalPath,
		LockFilePath: d.lockPath,
		LiveSessions: d.sessions.Count(),
	}
	if d.col != nil {
		status.Clips = d.col.Len()
		status.Battles = len(d.col.Battles())
		status.InvalidBattles = d.col.InvalidBattles()
	}
	if d.loadErr != nil {
		status.SourceError = d.loadErr.Error()
	}
	return status
}
