package models

import "time"

// JobStatus is the lifecycle state of a batch job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CanAdvance reports whether moving from s to next respects the
// pending → running → completed|failed ordering.
func (s JobStatus) CanAdvance(next JobStatus) bool {
	switch s {
	case JobPending:
		return next == JobRunning || next.Terminal()
	case JobRunning:
		return next.Terminal()
	default:
		return false
	}
}

// Job tracks one accepted batch. Results is positionally aligned with
// Cases once the job is terminal.
type Job struct {
	ID        string       `json:"id"`
	Status    JobStatus    `json:"status"`
	Cases     []CaseQuery  `json:"cases"`
	Results   []CaseResult `json:"results,omitempty"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	// CDPURL optionally pins the job to an already-running browser.
	CDPURL string `json:"-"`
}

// CaseSummary is the per-case report metadata carried next to the results.
type CaseSummary struct {
	Index      int    `json:"index"`
	Kind       string `json:"kind"`
	Rows       int    `json:"rows"`
	FutureRows int    `json:"future_rows"`
	// Future flags, per row, whether the row's date is strictly after the
	// report's generation date.
	Future []bool `json:"future,omitempty"`
	NoData bool   `json:"no_data,omitempty"`
}

// Notification is the single outbound payload describing a finished job.
type Notification struct {
	JobID          string        `json:"job_id"`
	Status         JobStatus     `json:"status"`
	Cases          []CaseQuery   `json:"cases"`
	Results        []CaseResult  `json:"results"`
	Summary        []CaseSummary `json:"summary"`
	ReportHTML     string        `json:"report_html,omitempty"`
	ReportMarkdown string        `json:"report_markdown,omitempty"`
	Error          string        `json:"error,omitempty"`
	GeneratedAt    time.Time     `json:"generated_at"`
}
