// Package store persists alignment runs so they can be listed,
// replayed, and exported after the process exits.
package store

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/uialign/uialign/internal/models"
)

// ErrNotFound reports a run ID that is not in the store.
var ErrNotFound = errors.New("run not found")

// RunSummary is the light row used for listings.
type RunSummary struct {
	RunID             string    `json:"run_id"`
	ImagePath         string    `json:"image_path"`
	Buttons           int       `json:"buttons"`
	Cycles            int       `json:"cycles"`
	TerminationReason string    `json:"termination_reason"`
	VisionCalls       int       `json:"vision_calls"`
	StartedAt         time.Time `json:"started_at"`
}

// RunStore defines the interface for persisting alignment runs.
type RunStore interface {
	// SaveRun writes the run and its full cycle history. Saving the
	// same run ID again replaces the previous record.
	SaveRun(ctx context.Context, run *models.RunResult) error

	// GetRun loads a run with its history, or ErrNotFound.
	GetRun(ctx context.Context, id string) (*models.RunResult, error)

	// ListRuns returns summaries, newest first. A limit of 0 means
	// no limit.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)

	// ExportJSONL streams every run as one JSON object per line and
	// reports how many were written.
	ExportJSONL(ctx context.Context, w io.Writer) (int, error)

	Close() error
}
