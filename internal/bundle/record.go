package bundle

import (
	"fmt"

	"github.com/hotbundle/hotbundle/internal/digest"
	"github.com/hotbundle/hotbundle/internal/kvstore"
)

// Store keys of the update record.
const (
	VersionKey    = "HBHotUpdateVersion"
	BundleHashKey = "HBHotUpdateBundleHash"
)

// Record is the persisted pointer to the activated bundle.
type Record struct {
	Version    string `json:"version" yaml:"version"`
	BundleHash string `json:"bundle_hash" yaml:"bundle_hash"`
}

// LoadRecord reads the update record. It returns nil when no record exists.
// A record missing either field is reported as incomplete so callers can
// clear it.
func LoadRecord(s kvstore.Store) (rec *Record, incomplete bool, err error) {
	version, hasVersion, err := s.Get(VersionKey)
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", VersionKey, err)
	}
	hash, hasHash, err := s.Get(BundleHashKey)
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", BundleHashKey, err)
	}
	if !hasVersion && !hasHash {
		return nil, false, nil
	}
	if version == "" || hash == "" || ValidateVersion(version) != nil {
		return nil, true, nil
	}
	return &Record{Version: version, BundleHash: hash}, false, nil
}

// SaveRecord activates rec. Both keys are written in one batch.
func SaveRecord(s kvstore.Store, rec Record) error {
	err := kvstore.Apply(s, map[string]string{
		VersionKey:    rec.Version,
		BundleHashKey: digest.Normalize(rec.BundleHash),
	}, nil)
	if err != nil {
		return fmt.Errorf("saving update record: %w", err)
	}
	return nil
}

// ClearRecord removes the update record.
func ClearRecord(s kvstore.Store) error {
	if err := kvstore.Apply(s, nil, []string{VersionKey, BundleHashKey}); err != nil {
		return fmt.Errorf("clearing update record: %w", err)
	}
	return nil
}
