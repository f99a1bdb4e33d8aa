package updater

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hotbundle/hotbundle/internal/bundle"
	"github.com/hotbundle/hotbundle/internal/platform"
)

const reportFileName = "last-update.json"

// Report is the persisted summary of the most recent update attempt.
type Report struct {
	AttemptID  string    `json:"attempt_id"`
	Version    string    `json:"version"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	Retryable  bool      `json:"retryable"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewReport summarizes an attempt's result and error.
func NewReport(res Result, err error) *Report {
	r := &Report{
		AttemptID:  res.AttemptID,
		Version:    res.Version,
		Outcome:    res.Outcome,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if err != nil {
		r.Error = err.Error()
		var ue *bundle.UpdateError
		if errors.As(err, &ue) {
			r.Retryable = ue.Retryable()
		}
	}
	return r
}

// ReportPath returns the report location inside dir.
func ReportPath(dir string) string {
	return filepath.Join(dir, reportFileName)
}

// LoadReport reads the last report from dir.
// Returns nil, nil if no attempt has been recorded yet.
func LoadReport(dir string) (*Report, error) {
	data, err := os.ReadFile(ReportPath(dir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading update report: %w", err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing update report: %w", err)
	}
	return &r, nil
}

// SaveReport writes r to dir, replacing any previous report.
func SaveReport(dir string, r *Report) error {
	if err := platform.EnsureDir(dir); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling update report: %w", err)
	}
	if err := platform.WriteFileAtomic(ReportPath(dir), data, platform.FilePermNormal); err != nil {
		return fmt.Errorf("writing update report: %w", err)
	}
	return nil
}
