package updater

import (
	"fmt"
	"runtime"
	"strings"
)

// DefaultPlatform names the platform segment of remote keys for this build.
func DefaultPlatform() string {
	return runtime.GOOS
}

// RemoteKey composes <prefix>/<platform>/<appVersion>/<version>/<archiveName>,
// the layout update archives are published under. The prefix may span several
// segments. No segment may be empty, "." or "..", and every part after the
// prefix must be a single segment.
func RemoteKey(prefix, platform, appVersion, version, archiveName string) (string, error) {
	for _, seg := range strings.Split(prefix, "/") {
		if err := checkKeySegment("prefix", seg); err != nil {
			return "", err
		}
	}
	parts := []struct{ what, value string }{
		{"platform", platform},
		{"app version", appVersion},
		{"version", version},
		{"archive name", archiveName},
	}
	for _, p := range parts {
		if strings.ContainsAny(p.value, `/\`) {
			return "", fmt.Errorf("remote key: %s %q must be a single segment", p.what, p.value)
		}
		if err := checkKeySegment(p.what, p.value); err != nil {
			return "", err
		}
	}
	return strings.Join([]string{prefix, platform, appVersion, version, archiveName}, "/"), nil
}

func checkKeySegment(what, seg string) error {
	switch strings.TrimSpace(seg) {
	case "":
		return fmt.Errorf("remote key: %s has an empty segment", what)
	case ".", "..":
		return fmt.Errorf("remote key: %s segment %q is not allowed", what, seg)
	}
	return nil
}
