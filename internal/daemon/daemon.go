package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/hotbundle/hotbundle/internal/bundle"
	"github.com/hotbundle/hotbundle/internal/kvstore"
	"github.com/hotbundle/hotbundle/internal/manifest"
	"github.com/hotbundle/hotbundle/internal/updater"
)

const (
	DefaultInterval = 15 * time.Minute
	DefaultDebounce = 2 * time.Second
)

// Applier applies one update request. *updater.Updater implements it.
type Applier interface {
	Apply(ctx context.Context, req updater.Request) (updater.Result, error)
}

// Resolver reports the live bundle. *bundle.Resolver implements it.
type Resolver interface {
	Resolve() bundle.Resolution
}

// Config wires a Daemon.
type Config struct {
	ManifestPath string
	Interval     time.Duration
	Debounce     time.Duration
	Updater      Applier
	Store        kvstore.Store
	// Resolver, when set, is consulted on every check so the live state is
	// observed and a damaged cache is cleared before deciding what to apply.
	Resolver       Resolver
	AppVersion     string
	AllowDowngrade bool
	// ReportDir receives the report of every attempt. Empty disables reports.
	ReportDir string
	Logger    logrus.FieldLogger
}

// Daemon runs update checks on a schedule and on manifest changes.
type Daemon struct {
	cfg Config
	log logrus.FieldLogger

	runMu sync.Mutex

	mu        sync.Mutex
	scheduler gocron.Scheduler
	watcher   *watcher
	cancel    context.CancelFunc
}

// New validates cfg and fills in defaults.
func New(cfg Config) (*Daemon, error) {
	if cfg.ManifestPath == "" {
		return nil, fmt.Errorf("daemon: manifest path is required")
	}
	if cfg.Updater == nil || cfg.Store == nil {
		return nil, fmt.Errorf("daemon: updater and store are required")
	}
	abs, err := filepath.Abs(cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("resolving manifest path: %w", err)
	}
	cfg.ManifestPath = abs
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Daemon{
		cfg: cfg,
		log: cfg.Logger.WithField("manifest", abs),
	}, nil
}

// RunOnce performs a single check. It returns a nil report when there was
// nothing to apply: no manifest, a host version the manifest excludes, or a
// version that is not newer than the active one.
func (d *Daemon) RunOnce(ctx context.Context) (*updater.Report, error) {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	live, err := d.liveVersion()
	if err != nil {
		return nil, err
	}

	m, err := manifest.Load(d.cfg.ManifestPath)
	if errors.Is(err, fs.ErrNotExist) {
		d.log.Debug("no update manifest")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log := d.log.WithField("version", m.Version)

	if d.cfg.AppVersion != "" {
		ok, err := m.AppliesTo(d.cfg.AppVersion)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.WithField("min_app_version", m.MinAppVersion).Info("manifest does not apply to this app version")
			return nil, nil
		}
	}

	if !updater.ShouldApply(live, m.Version, d.cfg.AllowDowngrade) {
		log.WithField("live", live).Debug("active bundle is current")
		return nil, nil
	}

	res, applyErr := d.cfg.Updater.Apply(ctx, updater.Request{
		Version:     m.Version,
		ArchiveHash: m.ArchiveHash,
		BundleHash:  m.BundleHash,
	})
	report := updater.NewReport(res, applyErr)
	if d.cfg.ReportDir != "" {
		if err := updater.SaveReport(d.cfg.ReportDir, report); err != nil {
			log.WithError(err).Warn("saving update report")
		}
	}
	return report, applyErr
}

func (d *Daemon) liveVersion() (string, error) {
	if d.cfg.Resolver != nil {
		res := d.cfg.Resolver.Resolve()
		if res.Location.Fallback || res.Record == nil {
			return "", nil
		}
		return res.Record.Version, nil
	}
	rec, _, err := bundle.LoadRecord(d.cfg.Store)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}
	return rec.Version, nil
}

// Start schedules periodic checks, the first one immediately, and watches
// the manifest file. It returns once both are running.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scheduler != nil {
		return fmt.Errorf("daemon already started")
	}

	runCtx, cancel := context.WithCancel(ctx)

	s, err := gocron.NewScheduler()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(d.cfg.Interval),
		gocron.NewTask(func() { d.tick(runCtx, "schedule") }),
		gocron.WithName("bundle-update"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = s.Shutdown()
		return fmt.Errorf("failed to create update job: %w", err)
	}

	w, err := newWatcher(d.cfg.ManifestPath, d.cfg.Debounce, func() { d.tick(runCtx, "manifest change") }, d.log)
	if err != nil {
		cancel()
		_ = s.Shutdown()
		return err
	}

	s.Start()
	w.start(runCtx)

	d.scheduler = s
	d.watcher = w
	d.cancel = cancel
	d.log.WithField("interval", d.cfg.Interval).Info("update daemon started")
	return nil
}

// Stop shuts down the scheduler and the watcher.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scheduler == nil {
		return nil
	}

	d.cancel()
	var result *multierror.Error
	if err := d.scheduler.Shutdown(); err != nil {
		result = multierror.Append(result, fmt.Errorf("stopping scheduler: %w", err))
	}
	if err := d.watcher.stop(); err != nil {
		result = multierror.Append(result, fmt.Errorf("stopping manifest watcher: %w", err))
	}
	d.scheduler = nil
	d.watcher = nil
	d.log.Info("update daemon stopped")
	return result.ErrorOrNil()
}

func (d *Daemon) tick(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	report, err := d.RunOnce(ctx)
	log := d.log.WithField("trigger", trigger)
	switch {
	case err != nil:
		log.WithError(err).Warn("update check failed")
	case report != nil:
		log.WithFields(logrus.Fields{
			"version": report.Version,
			"outcome": report.Outcome,
		}).Info("update check applied a bundle")
	}
}
