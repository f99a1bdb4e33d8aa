package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hotbundle/hotbundle/internal/archive"
	"github.com/hotbundle/hotbundle/internal/bundle"
	"github.com/hotbundle/hotbundle/internal/config"
	"github.com/hotbundle/hotbundle/internal/fetch"
	"github.com/hotbundle/hotbundle/internal/kvstore"
	"github.com/hotbundle/hotbundle/internal/logging"
	"github.com/hotbundle/hotbundle/internal/metrics"
	"github.com/hotbundle/hotbundle/internal/platform"
	"github.com/hotbundle/hotbundle/internal/updater"
)

// app holds the components every command is built from.
type app struct {
	settings *config.Settings
	log      *logrus.Logger
	store    kvstore.Store
	layout   bundle.Layout
	recorder metrics.Recorder
}

func newApp() (*app, error) {
	s, err := config.Current()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(s.Log)
	if err != nil {
		return nil, err
	}
	if err := platform.EnsureDir(s.DataDir); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := kvstore.Open(s.Store.Backend, s.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", s.Store.Backend, err)
	}

	return &app{
		settings: s,
		log:      log,
		store:    store,
		layout:   s.Layout(),
		recorder: metrics.Noop{},
	}, nil
}

func (a *app) close() {
	if err := kvstore.Close(a.store); err != nil {
		a.log.WithError(err).Warn("closing store")
	}
}

func (a *app) resolver() *bundle.Resolver {
	return bundle.NewResolver(a.layout, a.store,
		bundle.WithFallback(a.settings.FallbackScheme+a.layout.BundleFileName),
		bundle.WithResolverLogger(a.log),
		bundle.WithResolverRecorder(a.recorder),
	)
}

func (a *app) updater(ctx context.Context) (*updater.Updater, error) {
	src := a.settings.Source
	f, err := fetch.New(ctx, fetch.Source{
		Kind:      src.Kind,
		URL:       src.URL,
		Bucket:    src.Bucket,
		Region:    src.Region,
		Endpoint:  src.Endpoint,
		PathStyle: src.PathStyle,
		Dir:       src.Dir,
		Headers:   src.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring %s source: %w", src.Kind, err)
	}

	policy := fetch.DefaultRetryPolicy()
	policy.InitialInterval = a.settings.Retry.InitialInterval
	policy.MaxElapsed = a.settings.Retry.MaxElapsed
	retrying := fetch.NewRetrying(f, policy, a.log.WithFields(
		logging.SourceFields(src.Kind, sourceLocation(src), a.settings.Platform, a.settings.AppVersion)))

	return updater.New(a.layout, a.store, retrying,
		updater.WithExtractor(archive.Auto{}),
		updater.WithPlatform(a.settings.Platform),
		updater.WithAppVersion(a.settings.AppVersion),
		updater.WithRemotePrefix(a.settings.UpdateDir),
		updater.WithLogger(a.log),
		updater.WithRecorder(a.recorder),
	), nil
}

// reportDir is where the last attempt's report is kept.
func (a *app) reportDir() string {
	return a.settings.DataDir
}

func sourceLocation(src config.SourceSettings) string {
	switch src.Kind {
	case fetch.KindS3:
		return "s3://" + src.Bucket
	case fetch.KindDir:
		return src.Dir
	default:
		return src.URL
	}
}
