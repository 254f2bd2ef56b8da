// Package runs records conversion runs in PostgreSQL so operators can audit
// which archives were converted, when, and which pages failed.
package runs

import (
	"time"

	"github.com/google/uuid"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/conversion"
)

// Run statuses.
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
	StatusFailed   = "failed"
)

// Run is one recorded conversion.
type Run struct {
	ID          uuid.UUID `json:"id"`
	Archive     string    `json:"archive"`
	Output      string    `json:"output"`
	DPI         int       `json:"dpi"`
	Workers     int       `json:"workers"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	OutputBytes int64     `json:"output_bytes"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Failures    []Failure `json:"failures,omitempty"`
}

// Failure is a member that could not be converted during a run.
type Failure struct {
	Member string `json:"member"`
	Error  string `json:"error"`
}

// FromSummary builds the Run for a conversion summary and the fatal error
// the run ended with, if any.
func FromSummary(s *conversion.Summary, runErr error) Run {
	r := Run{
		ID:          s.RunID,
		Archive:     s.Archive,
		Output:      s.Output,
		DPI:         s.DPI,
		Workers:     s.Workers,
		Succeeded:   s.Succeeded,
		Failed:      s.Failed,
		OutputBytes: s.OutputBytes,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		Failures:    make([]Failure, len(s.Failures)),
	}

	for i, f := range s.Failures {
		r.Failures[i] = Failure{Member: f.Member, Error: f.Err.Error()}
	}

	switch {
	case runErr != nil:
		r.Status = StatusFailed
		r.Error = runErr.Error()
	case s.Failed > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusComplete
	}

	return r
}
