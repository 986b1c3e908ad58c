package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"vidlingo/internal/api"
	"vidlingo/internal/config"
	"vidlingo/internal/history"
	"vidlingo/internal/logging"
	"vidlingo/internal/preflight"
	"vidlingo/internal/staging"
	"vidlingo/internal/workflow"
)

// CredentialChecker reports whether a channel can publish.
type CredentialChecker interface {
	Has(channel string) bool
}

// Components are the collaborators a daemon coordinates. Engine is
// required; the rest are optional.
type Components struct {
	Engine      *workflow.Engine
	History     *history.Store
	Credentials CredentialChecker
}

// Daemon coordinates the pipeline engine and the intake API and enforces
// single-instance execution.
type Daemon struct {
	cfg         *config.Config
	logger      *slog.Logger
	engine      *workflow.Engine
	history     *history.Store
	credentials CredentialChecker
	api         *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	stopped atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon around already-built components.
func New(cfg *config.Config, components Components, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || components.Engine == nil {
		return nil, errors.New("daemon requires config and workflow engine")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "daemon"),
		engine:      components.Engine,
		history:     components.History,
		credentials: components.Credentials,
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
	}
	d.api = newAPIServer(cfg.Paths.APIBind, api.NewServer(d.engine, d.apiOptions(), logger).Handler(), logger)
	return d, nil
}

func (d *Daemon) apiOptions() api.Options {
	opts := api.Options{
		Auth:               api.NewAuthenticator(d.cfg.API.Token, d.cfg.API.JWTSecret, d.cfg.API.JWTIssuer),
		Languages:          d.cfg.EnabledLanguages(),
		AllowedEmailDomain: d.cfg.API.AllowedEmailDomain,
		Status:             d.Status,
		HistoryLimit:       d.cfg.Workflow.HistoryLimit,
	}
	if d.history != nil {
		opts.History = d.history
	}
	if d.credentials != nil {
		opts.HasCredentials = d.credentials.Has
	}
	return opts
}

// Start acquires the daemon lock, sweeps leftovers from earlier runs, and
// starts accepting jobs over HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	if d.stopped.Load() {
		return errors.New("daemon cannot be restarted after stop")
	}
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vidlingo daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.sweep(d.ctx)

	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("vidlingo daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api_bind", d.api.addr()),
		logging.Int("languages", len(d.cfg.EnabledLanguages())),
	)
	return nil
}

// sweep removes interrupted downloads, media past the retention window, and
// ledger rows past theirs. Failures are logged and never block startup.
func (d *Daemon) sweep(ctx context.Context) {
	mediaDir := d.cfg.MediaDir()
	if res := staging.CleanPartials(ctx, mediaDir, d.logger); len(res.Errors) > 0 {
		logging.WarnWithContext(d.logger, "partial media sweep incomplete", "media_sweep_failed",
			logging.Int("errors", len(res.Errors)),
			logging.String(logging.FieldImpact, "interrupted downloads remain on disk"),
		)
	}
	if hours := d.cfg.Workflow.MediaRetentionHours; hours > 0 {
		staging.CleanStale(ctx, mediaDir, time.Duration(hours)*time.Hour, d.logger)
	}
	if days := d.cfg.Workflow.HistoryRetentionDays; days > 0 && d.history != nil {
		cutoff := time.Now().AddDate(0, 0, -days)
		removed, err := d.history.Prune(ctx, cutoff)
		if err != nil {
			logging.WarnWithContext(d.logger, "history prune failed", "history_prune_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "old outcomes retained"),
			)
			return
		}
		if removed > 0 {
			d.logger.Info("history pruned", logging.Int64("removed", removed), logging.Int("retention_days", days))
		}
	}
}

// Stop stops accepting jobs, cancels the active one, and releases the lock.
// Pending jobs are dropped.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	d.engine.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.stopped.Store(true)
	d.logger.Info("vidlingo daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if !d.stopped.Load() {
		d.engine.Stop()
		d.stopped.Store(true)
	}
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// APIAddr returns the address the intake API is listening on, or the
// configured bind before Start.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	statuses := preflight.CheckSystemDeps(d.cfg)
	deps := make([]api.DependencyStatus, len(statuses))
	for i, dep := range statuses {
		deps[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	langs := d.cfg.EnabledLanguages()
	names := make([]string, len(langs))
	for i, lang := range langs {
		names[i] = lang.String()
	}
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DataDir:      d.cfg.Paths.DataDir,
		LockFilePath: d.lockPath,
		Languages:    names,
		Workflow:     d.engine.Status(ctx),
		Dependencies: deps,
	}
	if d.history != nil {
		status.HistoryPath = d.history.Path()
	}
	return status
}
