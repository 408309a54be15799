package scrape

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunSummary is the per-run record written alongside the normalized output,
// used by operators and the trigger API to see what the last run did.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ElapsedSec float64   `json:"elapsed_seconds"`
	Stats      RunStats  `json:"stats"`
	Ingested   int       `json:"ingested"`
	OutputPath string    `json:"output_path"`
	Outcome    string    `json:"outcome"` // "success", "partial", "failed"
	Error      string    `json:"error,omitempty"`
}

// ClassifyOutcome grades a finished run for the summary and the exit code.
func (s *RunSummary) ClassifyOutcome(fatal error) string {
	switch {
	case fatal != nil:
		return "failed"
	case s.Stats.Failed > 0:
		return "partial"
	default:
		return "success"
	}
}

// WriteRunSummary writes summary_<timestamp>.json under logDir and refreshes
// latest_run.json with the same payload.
func WriteRunSummary(summary *RunSummary, logDir string) error {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	data = append(data, '\n')

	stamped := filepath.Join(logDir, "summary_"+summary.StartedAt.Format("20060102_150405")+".json")
	if err := os.WriteFile(stamped, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	latest := filepath.Join(logDir, "latest_run.json")
	if err := os.WriteFile(latest, data, 0o644); err != nil {
		return fmt.Errorf("write latest summary: %w", err)
	}
	return nil
}

// ReadLatestSummary loads logs/latest_run.json if present.
func ReadLatestSummary(logDir string) (*RunSummary, error) {
	data, err := os.ReadFile(filepath.Join(logDir, "latest_run.json"))
	if err != nil {
		return nil, err
	}
	var summary RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal latest summary: %w", err)
	}
	return &summary, nil
}
