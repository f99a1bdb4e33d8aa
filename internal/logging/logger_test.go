package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/hotbundle/hotbundle/internal/config"
)

func TestNewDefaultsToStderr(t *testing.T) {
	logger, err := New(config.LogSettings{Level: "info"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if logger.Out != os.Stderr {
		t.Fatal("logger without a file should write to stderr")
	}
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %v, want info", logger.GetLevel())
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LogSettings{Level: "chatty"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewFallsBackWhenDirectoryBlocked(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	logger, err := New(config.LogSettings{Level: "info", File: filepath.Join(blocker, "sub", "hb.log")})
	if err != nil {
		t.Fatalf("New should not fail: %v", err)
	}
	if logger.Out != os.Stderr {
		t.Fatal("fallback should write to stderr")
	}
}

func TestNewCreatesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hotbundle.log")
	logger, err := New(config.LogSettings{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("test")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}

func TestJSONFormat(t *testing.T) {
	logger, err := New(config.LogSettings{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.WithFields(SourceFields("s3", "bundles", "ios", "1.0")).Info("fetching")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v: %s", err, buf.String())
	}
	if entry["source"] != "s3" || entry["platform"] != "ios" {
		t.Errorf("unexpected fields: %v", entry)
	}
}
