package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hotbundle/hotbundle/internal/platform"
)

// ErrNotFound means the remote object does not exist. Retrying will not help.
var ErrNotFound = errors.New("remote object not found")

// Fetcher downloads the object named key to dst.
type Fetcher interface {
	Fetch(ctx context.Context, key, dst string) error
}

// Func adapts a function to a Fetcher.
type Func func(ctx context.Context, key, dst string) error

func (f Func) Fetch(ctx context.Context, key, dst string) error { return f(ctx, key, dst) }

// writeFile streams r into dst through a temp file in the same directory so
// an interrupted download never leaves a truncated dst behind.
func writeFile(ctx context.Context, dst string, r io.Reader) (int64, error) {
	dir := filepath.Dir(dst)
	if err := platform.EnsureDir(dir); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".part-*")
	if err != nil {
		return 0, fmt.Errorf("creating download file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		tmp.Close()
		return n, fmt.Errorf("writing download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("closing download: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return n, fmt.Errorf("moving download into place: %w", err)
	}
	return n, nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
