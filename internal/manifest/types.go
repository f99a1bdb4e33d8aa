package manifest

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Manifest announces one published bundle version.
type Manifest struct {
	Version     string `yaml:"version" json:"version"`
	ArchiveHash string `yaml:"archive_hash" json:"archive_hash"`
	BundleHash  string `yaml:"bundle_hash" json:"bundle_hash"`
	// MinAppVersion is a semver constraint on the host application. A bare
	// version such as "2.1.0" means ">= 2.1.0".
	MinAppVersion string `yaml:"min_app_version,omitempty" json:"min_app_version,omitempty"`
	Notes         string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// AppliesTo reports whether the bundle may run on the given host version.
func (m *Manifest) AppliesTo(appVersion string) (bool, error) {
	if m.MinAppVersion == "" {
		return true, nil
	}
	c, err := semver.NewConstraint(constraintExpr(m.MinAppVersion))
	if err != nil {
		return false, fmt.Errorf("parsing min_app_version %q: %w", m.MinAppVersion, err)
	}
	v, err := semver.NewVersion(strings.TrimPrefix(appVersion, "v"))
	if err != nil {
		return false, fmt.Errorf("parsing app version %q: %w", appVersion, err)
	}
	return c.Check(v), nil
}

func constraintExpr(s string) string {
	s = strings.TrimSpace(s)
	if s != "" && (s[0] == 'v' || (s[0] >= '0' && s[0] <= '9')) {
		return ">= " + s
	}
	return s
}
