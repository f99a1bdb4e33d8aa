package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dir fetches objects from a local directory tree laid out like the remote
// store, e.g. a mounted mirror.
type Dir struct {
	root string
}

// NewDir returns a Dir fetcher rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) Fetch(ctx context.Context, key, dst string) error {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("key %q escapes the mirror root", key)
	}

	src, err := os.Open(filepath.Join(d.root, clean))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", key, err)
	}
	defer src.Close()

	_, err = writeFile(ctx, dst, src)
	return err
}
