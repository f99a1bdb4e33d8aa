package updater

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hotbundle/hotbundle/internal/archive"
	"github.com/hotbundle/hotbundle/internal/bundle"
	"github.com/hotbundle/hotbundle/internal/fetch"
	"github.com/hotbundle/hotbundle/internal/kvstore"
	"github.com/hotbundle/hotbundle/internal/metrics"
)

// Updater applies bundle updates to one cache. Calls on the same Updater are
// serialized; separate Updaters must not share a cache root.
type Updater struct {
	layout       bundle.Layout
	store        kvstore.Store
	fetcher      fetch.Fetcher
	extractor    archive.Extractor
	platform     string
	appVersion   string
	remotePrefix string
	log          logrus.FieldLogger
	recorder     metrics.Recorder
	now          func() time.Time

	mu sync.Mutex
}

// Option configures an Updater.
type Option func(*Updater)

// WithExtractor sets the archive extractor (zip by default).
func WithExtractor(e archive.Extractor) Option {
	return func(u *Updater) { u.extractor = e }
}

// WithPlatform sets the platform segment of remote keys.
func WithPlatform(platform string) Option {
	return func(u *Updater) { u.platform = platform }
}

// WithAppVersion sets the host application version segment of remote keys.
func WithAppVersion(version string) Option {
	return func(u *Updater) { u.appVersion = version }
}

// WithRemotePrefix sets the first segment of remote keys.
func WithRemotePrefix(prefix string) Option {
	return func(u *Updater) { u.remotePrefix = prefix }
}

// WithLogger sets the logger update attempts are reported to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(u *Updater) { u.log = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(u *Updater) { u.recorder = metrics.OrNoop(r) }
}

// New creates an Updater for the cache described by layout.
func New(layout bundle.Layout, store kvstore.Store, fetcher fetch.Fetcher, opts ...Option) *Updater {
	u := &Updater{
		layout:       layout,
		store:        store,
		fetcher:      fetcher,
		extractor:    archive.Zip{},
		platform:     DefaultPlatform(),
		appVersion:   "0.0.0",
		remotePrefix: bundle.DefaultUpdateDirName,
		log:          logrus.StandardLogger(),
		recorder:     metrics.Noop{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Layout returns the cache layout the updater writes to.
func (u *Updater) Layout() bundle.Layout { return u.layout }

// RemoteKey returns the key the archive for version is fetched from.
func (u *Updater) RemoteKey(version string) (string, error) {
	return RemoteKey(u.remotePrefix, u.platform, u.appVersion, version, u.layout.ArchiveFileName)
}
