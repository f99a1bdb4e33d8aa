package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hotbundle/hotbundle/internal/platform"
)

func createTestZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func createTestTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0755, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	tw.Close()
	gw.Close()
	return buf.Bytes()
}

func writeArchive(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestZip_Extract(t *testing.T) {
	archivePath := writeArchive(t, "bundle.zip", createTestZip(t, map[string]string{
		"index.bundle":        "console.log(1)",
		"assets/img/logo.png": "png",
	}))
	dest := filepath.Join(t.TempDir(), "1.0.0")

	if err := (Zip{}).Extract(context.Background(), archivePath, dest); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "index.bundle"))
	if err != nil {
		t.Fatalf("reading extracted bundle: %v", err)
	}
	if string(data) != "console.log(1)" {
		t.Errorf("bundle content = %q", data)
	}
	if _, err := os.Stat(filepath.Join(dest, "assets", "img", "logo.png")); err != nil {
		t.Errorf("nested asset missing: %v", err)
	}
}

func TestZip_Corrupt(t *testing.T) {
	archivePath := writeArchive(t, "bundle.zip", []byte("definitely not a zip"))
	if err := (Zip{}).Extract(context.Background(), archivePath, t.TempDir()); err == nil {
		t.Error("expected error for corrupt archive")
	}
}

func TestZip_UnsafePath(t *testing.T) {
	archivePath := writeArchive(t, "bundle.zip", createTestZip(t, map[string]string{
		"../evil.sh": "rm -rf /",
	}))
	parent := t.TempDir()
	dest := filepath.Join(parent, "slot")

	err := (Zip{}).Extract(context.Background(), archivePath, dest)
	if err == nil {
		t.Fatal("expected unsafe path error")
	}
	if _, statErr := os.Stat(filepath.Join(parent, "evil.sh")); !os.IsNotExist(statErr) {
		t.Error("entry was written outside destination")
	}
}

func TestTarGz_Extract(t *testing.T) {
	archivePath := writeArchive(t, "bundle.tar.gz", createTestTarGz(t, map[string]string{
		"index.bundle": "tar bundle",
	}))
	dest := t.TempDir()

	if err := (Auto{}).Extract(context.Background(), archivePath, dest); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	path := filepath.Join(dest, "index.bundle")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "tar bundle" {
		t.Errorf("content = %q", data)
	}
	if runtime.GOOS != "windows" {
		info, _ := os.Stat(path)
		if info.Mode().Perm()&0111 == 0 {
			t.Error("executable bit was not preserved")
		}
	}
}

func TestZip_EntryPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on Windows")
	}
	archivePath := writeArchive(t, "bundle.zip", createTestZip(t, map[string]string{
		"index.bundle":    "bundle",
		"assets/logo.png": "png",
	}))
	dest := t.TempDir()
	if err := (Zip{}).Extract(context.Background(), archivePath, dest); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	for _, name := range []string{"index.bundle", "assets/logo.png"} {
		info, err := os.Stat(filepath.Join(dest, filepath.FromSlash(name)))
		if err != nil {
			t.Fatal(err)
		}
		if extra := info.Mode().Perm() &^ platform.FilePermNormal; extra != 0 {
			t.Errorf("%s has bits %o beyond %o", name, extra, platform.FilePermNormal)
		}
	}
}

func TestTarGz_Corrupt(t *testing.T) {
	archivePath := writeArchive(t, "bundle.tar.gz", []byte("nope"))
	if err := (TarGz{}).Extract(context.Background(), archivePath, t.TempDir()); err == nil {
		t.Error("expected error for corrupt tarball")
	}
}

func TestExtract_Cancelled(t *testing.T) {
	archivePath := writeArchive(t, "bundle.zip", createTestZip(t, map[string]string{"index.bundle": "x"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := (Zip{}).Extract(ctx, archivePath, t.TempDir()); err == nil {
		t.Error("expected context error")
	}
}

func TestEntryPath(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"index.bundle", false},
		{"a/b/c.js", false},
		{"./a", false},
		{"a/../b", false},
		{"../x", true},
		{"..", true},
		{"/etc/passwd", true},
	}
	for _, tt := range tests {
		_, err := entryPath("/dest", tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("entryPath(%q) err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
