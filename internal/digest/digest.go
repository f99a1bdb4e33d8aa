// Package digest computes and compares the sha256 content hashes that
// identify archives and bundles. Hashes are rendered as lowercase hex and
// compared case-insensitively.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Size is the length of a hex-encoded digest.
const Size = sha256.Size * 2

// File returns the hex sha256 of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes returns the hex sha256 of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Equal compares two hex digests ignoring case.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Valid reports whether h looks like a hex sha256 digest.
func Valid(h string) bool {
	if len(h) != Size {
		return false
	}
	_, err := hex.DecodeString(h)
	return err == nil
}

// Normalize lowercases a digest for storage.
func Normalize(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Matches hashes the file at path and compares it with expected.
// The actual digest is returned for logging even when it does not match.
func Matches(path, expected string) (actual string, ok bool, err error) {
	actual, err = File(path)
	if err != nil {
		return "", false, err
	}
	return actual, Equal(actual, expected), nil
}
