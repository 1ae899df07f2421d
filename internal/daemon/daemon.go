package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"preloader/internal/blob"
	"preloader/internal/config"
	"preloader/internal/httpapi"
	"preloader/internal/index"
	"preloader/internal/ingest"
	"preloader/internal/journal"
	"preloader/internal/logging"
	"preloader/internal/preflight"
	"preloader/internal/recognize"
)

// Daemon owns the HTTP server and its stores, and enforces single-instance
// execution via a lock file in the log directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store  *index.Store
	blobs  *blob.Store
	events *journal.Store
	server *http.Server

	lockPath string
	lock     *flock.Flock

	listener net.Listener
	running  atomic.Bool
	cancel   context.CancelFunc
}

// Status represents daemon runtime information for the CLI.
type Status struct {
	Running      bool
	Bind         string
	IndexPath    string
	LockFilePath string
	Preflight    []preflight.Result
}

// New constructs a daemon with all dependencies initialized from config.
// Directories are created as needed.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	blobs, err := blob.NewStore(cfg.ImagesDir())
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	store, err := index.NewStore(cfg.IndexPath(), blobs, logger, index.SystemClock())
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	events, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	svc, err := ingest.NewService(store, blobs, events, logger, nil)
	if err != nil {
		events.Close()
		return nil, err
	}

	var scorer *recognize.Scorer
	if cfg.OCR.Enabled {
		engine := recognize.NewTesseractEngine(cfg.TesseractBinary(), cfg.OCR.Languages)
		scorer = recognize.NewScorer(engine, nil, cfg.OCR.UpscaleFactor, logger)
	}

	api, err := httpapi.NewServer(httpapi.Options{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Blobs:  blobs,
		Ingest: svc,
		Scorer: scorer,
		Events: events,
	})
	if err != nil {
		events.Close()
		return nil, err
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "preloader.lock")
	return &Daemon{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "daemon"),
		store:  store,
		blobs:  blobs,
		events: events,
		server: &http.Server{
			Handler:           api.Router(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, runs preflight checks, and begins serving.
// Preflight failures are logged but only directory-access failures abort;
// a missing recognition binary degrades the OCR endpoint instead.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another preloader instance is already running")
	}

	for _, res := range preflight.RunAll(ctx, d.cfg) {
		if res.Passed {
			d.logger.Debug("preflight check passed",
				logging.String("check", res.Name),
				logging.String("detail", res.Detail))
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", res.Name),
			logging.String("detail", res.Detail))
	}

	listener, err := net.Listen("tcp", d.cfg.Paths.Bind)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("listen on %s: %w", d.cfg.Paths.Bind, err)
	}
	d.listener = listener

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go func() {
		if err := d.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("server error", logging.Error(err))
		}
	}()
	go func() {
		<-runCtx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = d.server.Shutdown(shutdownCtx)
	}()

	d.running.Store(true)
	d.logger.Info("preloader daemon started",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", d.lockPath))
	return nil
}

// Addr reports the bound listen address, or empty when not running.
func (d *Daemon) Addr() string {
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Stop shuts the server down and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = d.server.Shutdown(shutdownCtx)
	if d.listener != nil {
		_ = d.listener.Close()
		d.listener = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("preloader daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	if d.events != nil {
		return d.events.Close()
	}
	return nil
}

// Status reports the daemon snapshot for status displays.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Bind:         d.cfg.Paths.Bind,
		IndexPath:    d.cfg.IndexPath(),
		LockFilePath: d.lockPath,
		Preflight:    preflight.RunAll(ctx, d.cfg),
	}
}
