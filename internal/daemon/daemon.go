package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gofrs/flock"

	"anonymizer/internal/anonymize"
	"anonymizer/internal/api"
	"anonymizer/internal/config"
	"anonymizer/internal/logging"
	"anonymizer/internal/mapping"
	"anonymizer/internal/services"
)

// Daemon serves the anonymizer API and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   mapping.Store
	service *api.AnonymizerService
	metrics *serverMetrics
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running         bool
	Address         string
	LockFilePath    string
	StorageLocation string
	MappingEntries  int
	MappingError    string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store mapping.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "new", "config, store and logger are required", nil)
	}

	metrics := newServerMetrics()
	svc := api.NewAnonymizerService(store,
		api.WithLogger(logger),
		api.WithTokenGenerator(anonymize.NewTokenGenerator(cfg.Tokens.Length)),
		api.WithEncodeObserver(func(stats api.EncodeStats) {
			metrics.tokensCreated.Add(float64(stats.Created))
			metrics.mappingSize.Set(float64(stats.Total))
		}),
	)
	server, err := newAPIServer(cfg, svc, metrics, logger)
	if err != nil {
		return nil, err
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		service:  svc,
		metrics:  metrics,
		api:      server,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and starts the API listener.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another anonymizer server instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start api server: %w", err)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("anonymizer server started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.addr()),
	)
	return nil
}

// Stop shuts the listener down and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("anonymizer server stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime state, including the current mapping size.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:         d.running.Load(),
		Address:         d.api.addr(),
		LockFilePath:    d.lockPath,
		StorageLocation: d.store.Location(),
	}
	m, err := d.store.Load(ctx)
	if err != nil {
		status.MappingError = err.Error()
		return status
	}
	status.MappingEntries = m.Len()
	return status
}

// Handler exposes the routed HTTP handler, mainly for in-process tests.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// Addr returns the bound listener address once started.
func (d *Daemon) Addr() string {
	return d.api.addr()
}
