package bundle

import (
	"errors"
	"io/fs"

	"github.com/sirupsen/logrus"

	"github.com/hotbundle/hotbundle/internal/digest"
	"github.com/hotbundle/hotbundle/internal/kvstore"
	"github.com/hotbundle/hotbundle/internal/metrics"
)

// DefaultFallbackScheme prefixes the bundle file name to form the marker for
// the bundle packaged with the host application.
const DefaultFallbackScheme = "assets://"

// Resolution outcomes, also used as metric labels.
const (
	OutcomeActive           = "active"
	OutcomeNoRecord         = "fallback_no_record"
	OutcomeIncompleteRecord = "fallback_incomplete_record"
	OutcomeMissing          = "fallback_missing"
	OutcomeCorrupt          = "fallback_corrupt"
	OutcomeUnreadable       = "fallback_unreadable"
	OutcomeStoreUnavailable = "fallback_store_unavailable"
)

// Location is what the host should load: a cached bundle file, or the
// fallback marker for its own packaged bundle.
type Location struct {
	Path     string
	Fallback bool
}

func (l Location) String() string { return l.Path }

// Resolution is a Location plus how it was reached.
type Resolution struct {
	Location Location
	Outcome  string
	Record   *Record
}

// Resolver answers "which bundle should be loaded right now" from local
// state only.
type Resolver struct {
	layout   Layout
	store    kvstore.Store
	fallback string
	log      logrus.FieldLogger
	recorder metrics.Recorder
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFallback overrides the fallback marker.
func WithFallback(marker string) ResolverOption {
	return func(r *Resolver) { r.fallback = marker }
}

// WithResolverLogger sets the logger used for cleanup reports.
func WithResolverLogger(l logrus.FieldLogger) ResolverOption {
	return func(r *Resolver) { r.log = l }
}

// WithResolverRecorder sets the metrics recorder.
func WithResolverRecorder(m metrics.Recorder) ResolverOption {
	return func(r *Resolver) { r.recorder = metrics.OrNoop(m) }
}

// NewResolver creates a Resolver over layout and store.
func NewResolver(layout Layout, store kvstore.Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		layout:   layout,
		store:    store,
		fallback: DefaultFallbackScheme + layout.BundleFileName,
		log:      logrus.StandardLogger(),
		recorder: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fallback returns the location of the host's packaged bundle.
func (r *Resolver) Fallback() Location {
	return Location{Path: r.fallback, Fallback: true}
}

// ResolveActiveBundle returns the bundle to load. It never fails; any
// inconsistency in the cache yields the fallback.
func (r *Resolver) ResolveActiveBundle() Location {
	return r.Resolve().Location
}

// Resolve is ResolveActiveBundle with the outcome attached.
func (r *Resolver) Resolve() Resolution {
	res := r.resolve()
	r.recorder.ObserveResolve(res.Outcome)
	return res
}

func (r *Resolver) resolve() Resolution {
	rec, incomplete, err := LoadRecord(r.store)
	if err != nil {
		r.log.WithError(err).Warn("update record unreadable, using fallback bundle")
		return r.fallbackWith(OutcomeStoreUnavailable, nil)
	}
	if incomplete {
		r.log.Warn("incomplete update record, clearing")
		r.clearRecord()
		return r.fallbackWith(OutcomeIncompleteRecord, nil)
	}
	if rec == nil {
		return r.fallbackWith(OutcomeNoRecord, nil)
	}

	slot := r.layout.Slot(rec.Version)
	log := r.log.WithFields(logrus.Fields{"version": rec.Version, "path": slot.BundlePath})

	actual, ok, err := digest.Matches(slot.BundlePath, rec.BundleHash)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("activated bundle missing, clearing update record")
		r.clearRecord()
		return r.fallbackWith(OutcomeMissing, rec)
	case err != nil:
		log.WithError(err).Warn("activated bundle unreadable, using fallback bundle")
		return r.fallbackWith(OutcomeUnreadable, rec)
	case !ok:
		log.WithFields(logrus.Fields{
			"expected": rec.BundleHash,
			"actual":   actual,
		}).Warn("activated bundle corrupt, purging cache")
		if err := r.layout.Purge(); err != nil {
			log.WithError(err).Error("purging corrupt cache")
		}
		r.clearRecord()
		return r.fallbackWith(OutcomeCorrupt, rec)
	}

	return Resolution{
		Location: Location{Path: slot.BundlePath},
		Outcome:  OutcomeActive,
		Record:   rec,
	}
}

func (r *Resolver) fallbackWith(outcome string, rec *Record) Resolution {
	return Resolution{Location: r.Fallback(), Outcome: outcome, Record: rec}
}

func (r *Resolver) clearRecord() {
	if err := ClearRecord(r.store); err != nil {
		r.log.WithError(err).Error("clearing update record")
	}
}
