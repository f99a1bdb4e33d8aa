package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hotbundle/hotbundle/internal/bundle"
	"github.com/hotbundle/hotbundle/internal/digest"
	"github.com/hotbundle/hotbundle/internal/platform"
)

// Outcomes reported for successful attempts. Failed attempts report the
// ErrorKind's Outcome.
const (
	OutcomeApplied        = "applied"
	OutcomeAlreadyApplied = "already_applied"
)

// Request names a version and the hashes the publisher asserts for it.
type Request struct {
	Version     string
	ArchiveHash string
	BundleHash  string
}

// Result describes one update attempt.
type Result struct {
	AttemptID  string
	Version    string
	Outcome    string
	StartedAt  time.Time
	FinishedAt time.Time
}

// ApplyUpdate fetches, verifies and activates version. On failure the
// returned error is a *bundle.UpdateError and the previously active bundle
// stays in place.
func (u *Updater) ApplyUpdate(ctx context.Context, version, archiveHash, bundleHash string) error {
	_, err := u.Apply(ctx, Request{Version: version, ArchiveHash: archiveHash, BundleHash: bundleHash})
	return err
}

// Apply is ApplyUpdate returning the attempt's Result alongside the error.
func (u *Updater) Apply(ctx context.Context, req Request) (Result, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	res := Result{
		AttemptID: uuid.NewString(),
		Version:   req.Version,
		StartedAt: u.now(),
	}
	log := u.log.WithFields(logrus.Fields{
		"attempt":     res.AttemptID,
		"version":     req.Version,
		"platform":    u.platform,
		"app_version": u.appVersion,
	})

	outcome, err := u.apply(ctx, req, log)
	res.Outcome = outcome
	res.FinishedAt = u.now()
	u.recorder.ObserveUpdate(outcome, res.FinishedAt.Sub(res.StartedAt))

	if err != nil {
		log.WithError(err).WithField("outcome", outcome).Warn("bundle update failed")
		return res, err
	}
	log.WithField("outcome", outcome).Info("bundle update finished")
	return res, nil
}

func (u *Updater) apply(ctx context.Context, req Request, log logrus.FieldLogger) (string, error) {
	version := req.Version
	fail := func(kind bundle.ErrorKind, op string, err error) (string, error) {
		return kind.Outcome(), bundle.NewUpdateError(kind, version, op, err)
	}

	if err := validateRequest(req); err != nil {
		return fail(bundle.ErrInvalidRequest, "validate", err)
	}
	if err := u.layout.Validate(); err != nil {
		return fail(bundle.ErrInvalidRequest, "validate layout", err)
	}
	key, err := u.RemoteKey(version)
	if err != nil {
		return fail(bundle.ErrInvalidRequest, "remote key", err)
	}

	slot := u.layout.Slot(version)
	live, _, err := bundle.LoadRecord(u.store)
	if err != nil {
		return fail(bundle.ErrStorageIO, "load record", err)
	}
	if slot.HasBundle() && live != nil && live.Version == version {
		log.Debug("bundle already applied")
		return OutcomeAlreadyApplied, nil
	}

	// Everything except the live slot goes, including remnants of version.
	keep := ""
	if live != nil && live.Version != version {
		keep = live.Version
	}
	if err := u.layout.PurgeExcept(keep); err != nil {
		return fail(bundle.ErrStorageIO, "clear stale slots", err)
	}
	if err := u.layout.ResetStaging(); err != nil {
		return fail(bundle.ErrStorageIO, "prepare staging", err)
	}
	defer func() {
		if err := u.layout.ClearStaging(); err != nil {
			log.WithError(err).Warn("clearing staging area")
		}
	}()

	archivePath := u.layout.ArchivePath()
	log.WithField("key", key).Debug("fetching archive")
	if err := u.fetcher.Fetch(ctx, key, archivePath); err != nil {
		return fail(bundle.ErrFetchFailed, "fetch "+key, err)
	}

	actual, ok, err := digest.Matches(archivePath, req.ArchiveHash)
	if err != nil {
		return fail(bundle.ErrStorageIO, "hash archive", err)
	}
	if !ok {
		return fail(bundle.ErrArchiveCorrupt, "verify archive",
			fmt.Errorf("sha256 %s, expected %s", actual, digest.Normalize(req.ArchiveHash)))
	}

	if err := u.extractor.Extract(ctx, archivePath, slot.Dir); err != nil {
		u.removeSlot(slot, log)
		return fail(bundle.ErrExtractionFailed, "extract", err)
	}

	if !slot.HasBundle() {
		u.removeSlot(slot, log)
		return fail(bundle.ErrBundleCorrupt, "verify bundle",
			fmt.Errorf("archive has no %s", u.layout.BundleFileName))
	}
	actual, ok, err = digest.Matches(slot.BundlePath, req.BundleHash)
	if err != nil {
		u.removeSlot(slot, log)
		return fail(bundle.ErrStorageIO, "hash bundle", err)
	}
	if !ok {
		u.removeSlot(slot, log)
		return fail(bundle.ErrBundleCorrupt, "verify bundle",
			fmt.Errorf("sha256 %s, expected %s", actual, digest.Normalize(req.BundleHash)))
	}

	if err := platform.SyncFile(slot.BundlePath); err != nil {
		u.removeSlot(slot, log)
		return fail(bundle.ErrStorageIO, "sync bundle", err)
	}
	if err := platform.SyncDir(slot.Dir); err != nil {
		u.removeSlot(slot, log)
		return fail(bundle.ErrStorageIO, "sync slot", err)
	}

	if err := bundle.SaveRecord(u.store, bundle.Record{Version: version, BundleHash: req.BundleHash}); err != nil {
		u.removeSlot(slot, log)
		return fail(bundle.ErrStorageIO, "activate", err)
	}

	// The record now points at version; the previous slot is unreachable.
	if err := u.layout.PurgeExcept(version); err != nil {
		log.WithError(err).Warn("removing previous slot")
	}
	return OutcomeApplied, nil
}

func (u *Updater) removeSlot(slot bundle.Slot, log logrus.FieldLogger) {
	if err := slot.Remove(); err != nil {
		log.WithError(err).WithField("dir", slot.Dir).Warn("removing rejected slot")
	}
}

func validateRequest(req Request) error {
	if err := bundle.ValidateVersion(req.Version); err != nil {
		return err
	}
	if !digest.Valid(req.ArchiveHash) {
		return fmt.Errorf("archive hash %q is not a sha256 hex digest", req.ArchiveHash)
	}
	if !digest.Valid(req.BundleHash) {
		return fmt.Errorf("bundle hash %q is not a sha256 hex digest", req.BundleHash)
	}
	return nil
}
