package updater

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions orders two bundle versions: -1 if a < b, 0 if equal,
// 1 if a > b. Versions are parsed leniently ("v" prefix, "7", "1.2").
func CompareVersions(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// ShouldApply decides whether candidate should replace the live version.
// Nothing live means any candidate applies. Versions that do not parse are
// compared for equality only, since no order can be established.
func ShouldApply(live, candidate string, allowDowngrade bool) bool {
	if live == "" {
		return true
	}
	if live == candidate {
		return false
	}
	cmp, err := CompareVersions(live, candidate)
	if err != nil {
		return true
	}
	if cmp == 0 {
		return false
	}
	return cmp < 0 || allowDowngrade
}

func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	return semver.NewVersion(version)
}
