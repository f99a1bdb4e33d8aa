package updater

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/hotbundle/hotbundle/internal/bundle"
)

func TestLoadReport_Missing(t *testing.T) {
	r, err := LoadReport(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != nil {
		t.Error("expected nil report for missing file")
	}
}

func TestSaveAndLoadReport(t *testing.T) {
	tmp := t.TempDir()
	start := time.Now().UTC().Truncate(time.Second)

	res := Result{
		AttemptID:  "a-1",
		Version:    "3",
		Outcome:    bundle.ErrFetchFailed.Outcome(),
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
	}
	err := bundle.NewUpdateError(bundle.ErrFetchFailed, "3", "fetch", errors.New("connection reset"))

	if err := SaveReport(tmp, NewReport(res, err)); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	loaded, loadErr := LoadReport(tmp)
	if loadErr != nil {
		t.Fatalf("LoadReport failed: %v", loadErr)
	}
	if loaded.AttemptID != "a-1" {
		t.Errorf("AttemptID = %q, want %q", loaded.AttemptID, "a-1")
	}
	if loaded.Outcome != "fetch_failed" {
		t.Errorf("Outcome = %q, want %q", loaded.Outcome, "fetch_failed")
	}
	if !loaded.Retryable {
		t.Error("fetch failures should be reported as retryable")
	}
	if loaded.Error == "" {
		t.Error("Error should carry the failure message")
	}
	if !loaded.FinishedAt.Equal(start.Add(2 * time.Second)) {
		t.Errorf("FinishedAt = %v", loaded.FinishedAt)
	}
}

func TestNewReport_Success(t *testing.T) {
	r := NewReport(Result{Version: "1", Outcome: OutcomeApplied}, nil)
	if r.Error != "" || r.Retryable {
		t.Errorf("unexpected failure fields on success report: %+v", r)
	}
}

func TestNewReport_NonRetryable(t *testing.T) {
	err := bundle.NewUpdateError(bundle.ErrBundleCorrupt, "1", "verify bundle", nil)
	r := NewReport(Result{Version: "1", Outcome: bundle.ErrBundleCorrupt.Outcome()}, err)
	if r.Retryable {
		t.Error("bundle corruption should not be retryable")
	}
}

func TestLoadReport_Corrupted(t *testing.T) {
	tmp := t.TempDir()
	os.WriteFile(ReportPath(tmp), []byte("not valid json{{{"), 0644)

	if _, err := LoadReport(tmp); err == nil {
		t.Error("expected error for corrupted report")
	}
}
