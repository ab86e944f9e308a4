package models

import "time"

// AnalysisRun records one runAnalysis call and its results
type AnalysisRun struct {
	ID int64 `json:"id" db:"id"`

	// Ownership
	Owner      string `json:"owner" db:"owner"`
	AreaID     int64  `json:"area_id,omitempty" db:"area_id"`
	Generation uint64 `json:"generation" db:"generation"` // AOI generation the run was bound to

	// Status
	Status  string   `json:"status" db:"status"` // running, completed, stale, failed
	Filters []string `json:"filters" db:"filters"`
	Error   string   `json:"error,omitempty" db:"error"`

	// Results, stored compressed
	Results map[string]AnalysisResult `json:"results,omitempty" db:"results"`

	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// RunStatus constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusStale     = "stale"
	RunStatusFailed    = "failed"
)
