package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Report is the outcome of one Runner.Run.
type Report struct {
	RunID      string           `json:"run_id"`
	BaseURL    string           `json:"base_url"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	DurationMS int64            `json:"duration_ms"`
	Scenarios  []ScenarioResult `json:"scenarios"`
}

// ScenarioResult records one scenario.
type ScenarioResult struct {
	Name       string       `json:"name"`
	Source     string       `json:"source,omitempty"`
	Passed     bool         `json:"passed"`
	Error      string       `json:"error,omitempty"`
	Screenshot string       `json:"screenshot,omitempty"`
	DurationMS int64        `json:"duration_ms"`
	Steps      []StepResult `json:"steps"`
}

// StepResult records one step. Steps after a failure are not run and not
// recorded.
type StepResult struct {
	Index      int    `json:"index"`
	Kind       string `json:"kind"`
	Passed     bool   `json:"passed"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func (r *Report) finish(at time.Time) {
	r.FinishedAt = at
	r.DurationMS = at.Sub(r.StartedAt).Milliseconds()
}

// Failed returns the number of failed scenarios.
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Scenarios {
		if !s.Passed {
			n++
		}
	}
	return n
}

// Passed reports whether every scenario passed.
func (r *Report) Passed() bool {
	return r.Failed() == 0
}

// WriteJSON writes the report as indented JSON, creating parent directories.
func (r *Report) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// WriteSummary prints one line per scenario and a totals line.
func (r *Report) WriteSummary(w io.Writer) {
	for _, s := range r.Scenarios {
		status := "PASS"
		if !s.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s  %-40s %6dms\n", status, s.Name, s.DurationMS)
		if s.Error != "" {
			fmt.Fprintf(w, "      %s\n", s.Error)
		}
		if s.Screenshot != "" {
			fmt.Fprintf(w, "      screenshot: %s\n", s.Screenshot)
		}
	}
	fmt.Fprintf(w, "\n%d scenario(s), %d passed, %d failed (run %s)\n",
		len(r.Scenarios), len(r.Scenarios)-r.Failed(), r.Failed(), r.RunID)
}
