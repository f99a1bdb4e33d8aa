package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hotbundle/hotbundle/internal/platform"
)

// ErrUnsafePath is returned for entries that resolve outside the destination.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// Extractor unpacks archivePath into destDir.
type Extractor interface {
	Extract(ctx context.Context, archivePath, destDir string) error
}

// Func adapts a function to an Extractor.
type Func func(ctx context.Context, archivePath, destDir string) error

func (f Func) Extract(ctx context.Context, archivePath, destDir string) error {
	return f(ctx, archivePath, destDir)
}

// Zip extracts .zip archives.
type Zip struct{}

// TarGz extracts gzip-compressed tarballs.
type TarGz struct{}

// Auto picks Zip or TarGz from the archive's extension, defaulting to Zip.
type Auto struct{}

func (Auto) Extract(ctx context.Context, archivePath, destDir string) error {
	name := strings.ToLower(archivePath)
	if strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz") {
		return TarGz{}.Extract(ctx, archivePath, destDir)
	}
	return Zip{}.Extract(ctx, archivePath, destDir)
}

func (Zip) Extract(ctx context.Context, archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening zip archive: %w", err)
	}
	defer r.Close()

	if err := platform.EnsureDir(destDir); err != nil {
		return err
	}
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := entryPath(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := platform.EnsureDir(target); err != nil {
				return err
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("opening zip entry %s: %w", f.Name, err)
		}
		err = writeEntry(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}
	return nil
}

func (TarGz) Extract(ctx context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gz.Close()

	if err := platform.EnsureDir(destDir); err != nil {
		return err
	}
	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		target, err := entryPath(destDir, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := platform.EnsureDir(target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode()); err != nil {
				return fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}
		default:
			// Links and devices have no place in a bundle.
		}
	}
}

// entryPath joins name below destDir and rejects anything that escapes it.
func entryPath(destDir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return filepath.Join(destDir, clean), nil
}

func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if err := platform.EnsureDir(filepath.Dir(target)); err != nil {
		return err
	}
	perm := platform.FilePermNormal
	if mode.Perm()&0111 != 0 {
		perm = platform.DirPermNormal
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
