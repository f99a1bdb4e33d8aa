package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hotbundle/hotbundle/internal/platform"
)

// Default names inside the data directory.
const (
	DefaultUpdateDirName   = "HotUpdate"
	DefaultStagingDirName  = "temp"
	DefaultBundleFileName  = "index.bundle"
	DefaultArchiveFileName = "bundle.zip"
)

// Layout describes where cached bundles live below a data directory:
//
//	<Root>/<UpdateDirName>/<version>/<BundleFileName>   slots
//	<Root>/<StagingDirName>/<ArchiveFileName>           in-flight download
type Layout struct {
	Root            string
	UpdateDirName   string
	StagingDirName  string
	BundleFileName  string
	ArchiveFileName string
}

// NewLayout returns a Layout rooted at root with the default names.
func NewLayout(root string) Layout {
	return Layout{
		Root:            root,
		UpdateDirName:   DefaultUpdateDirName,
		StagingDirName:  DefaultStagingDirName,
		BundleFileName:  DefaultBundleFileName,
		ArchiveFileName: DefaultArchiveFileName,
	}
}

// UpdateDir is the cache root holding one directory per resident version.
func (l Layout) UpdateDir() string {
	return filepath.Join(l.Root, l.UpdateDirName)
}

// StagingDir holds the downloaded archive until extraction consumes it.
func (l Layout) StagingDir() string {
	return filepath.Join(l.Root, l.StagingDirName)
}

// ArchivePath is where a fetched archive is written.
func (l Layout) ArchivePath() string {
	return filepath.Join(l.StagingDir(), l.ArchiveFileName)
}

// Slot returns the cache slot for version. The version must have passed
// ValidateVersion.
func (l Layout) Slot(version string) Slot {
	dir := filepath.Join(l.UpdateDir(), version)
	return Slot{
		Version:    version,
		Dir:        dir,
		BundlePath: filepath.Join(dir, l.BundleFileName),
	}
}

// Slots lists the versions that currently have a directory in the cache.
func (l Layout) Slots() ([]string, error) {
	entries, err := os.ReadDir(l.UpdateDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading update directory: %w", err)
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	return versions, nil
}

// Purge deletes the whole update tree.
func (l Layout) Purge() error {
	return platform.RemoveAll(l.UpdateDir())
}

// PurgeExcept deletes every entry in the update tree except the slot for
// keep. An empty keep purges everything.
func (l Layout) PurgeExcept(keep string) error {
	if keep == "" {
		return l.Purge()
	}
	entries, err := os.ReadDir(l.UpdateDir())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading update directory: %w", err)
	}
	for _, e := range entries {
		if e.Name() == keep {
			continue
		}
		if err := platform.RemoveAll(filepath.Join(l.UpdateDir(), e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// ResetStaging empties the staging area and recreates it.
func (l Layout) ResetStaging() error {
	if err := l.ClearStaging(); err != nil {
		return err
	}
	return platform.EnsureDir(l.StagingDir())
}

// ClearStaging deletes the staging area.
func (l Layout) ClearStaging() error {
	return platform.RemoveAll(l.StagingDir())
}

// Slot is one version's directory in the cache.
type Slot struct {
	Version    string
	Dir        string
	BundlePath string
}

// HasBundle reports whether the slot's bundle file is present.
func (s Slot) HasBundle() bool {
	return platform.IsRegularFile(s.BundlePath)
}

// Remove deletes the slot directory.
func (s Slot) Remove() error {
	return platform.RemoveAll(s.Dir)
}

// ValidateVersion rejects versions that cannot name exactly one directory
// below the update tree.
func ValidateVersion(version string) error {
	return validateName("version", version)
}

// Validate checks that every configured name is a single path component
// and that the update tree and the staging area are distinct.
func (l Layout) Validate() error {
	names := []struct{ what, name string }{
		{"update directory", l.UpdateDirName},
		{"staging directory", l.StagingDirName},
		{"bundle file", l.BundleFileName},
		{"archive file", l.ArchiveFileName},
	}
	for _, n := range names {
		if err := validateName(n.what, n.name); err != nil {
			return err
		}
	}
	if l.UpdateDirName == l.StagingDirName {
		return fmt.Errorf("update directory and staging directory must differ, both are %q", l.UpdateDirName)
	}
	return nil
}

func validateName(what, name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%s must not be empty", what)
	case name == "." || name == "..":
		return fmt.Errorf("%s %q is not a valid directory name", what, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%s %q must not contain path separators", what, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%s contains a NUL byte", what)
	}
	return nil
}
