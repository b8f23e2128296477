package models

import "time"

// RenderJob represents one queued or executed replay render (timelapse or
// heatmap) over a window of grid history
type RenderJob struct {
	ID int64 `json:"id" db:"id"`

	// What to render
	JobType     string `json:"job_type" db:"job_type"`         // timelapse, heatmap
	WindowStart string `json:"window_start" db:"window_start"` // ISO-8601 UTC
	WindowEnd   string `json:"window_end" db:"window_end"`     // ISO-8601 UTC
	OutputPath  string `json:"output_path" db:"output_path"`

	// Cadence parameters; nil means not supplied
	EveryNEvents    *int `json:"every_n_events,omitempty" db:"every_n_events"`
	IntervalSeconds *int `json:"interval_seconds,omitempty" db:"interval_seconds"`

	// Heatmap only
	LogOrder int `json:"log_order" db:"log_order"`

	// Status
	Status          string  `json:"status" db:"status"` // pending, running, completed, failed
	FramesEmitted   int     `json:"frames_emitted" db:"frames_emitted"`
	ProgressPercent float64 `json:"progress_percent" db:"progress_percent"`
	ErrorMessage    string  `json:"error_message,omitempty" db:"error_message"`

	// Metadata
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// JobType constants
const (
	JobTypeTimelapse = "timelapse"
	JobTypeHeatmap   = "heatmap"
)

// JobStatus constants
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// CreateRenderJobRequest is the payload for submitting a render job
type CreateRenderJobRequest struct {
	JobType         string `json:"job_type" binding:"required"`
	WindowStart     string `json:"window_start" binding:"required"`
	WindowEnd       string `json:"window_end" binding:"required"`
	OutputPath      string `json:"output_path" binding:"required"`
	EveryNEvents    *int   `json:"every_n_events,omitempty"`
	IntervalSeconds *int   `json:"interval_seconds,omitempty"`
	LogOrder        int    `json:"log_order,omitempty"`
}

// EraInfo is the API view of one operational era
type EraInfo struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
