package models

import "time"

// JobAccepted is the immediate response for a submitted batch.
type JobAccepted struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
	Total  int       `json:"total"`
}

// JobStatusResponse is the response for GET /api/v1/jobs/:id.
type JobStatusResponse struct {
	ID        string       `json:"id"`
	Status    JobStatus    `json:"status"`
	Total     int          `json:"total"`
	Results   []CaseResult `json:"results,omitempty"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ErrorResponse wraps an ErrorDetail for non-2xx API replies.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status     string `json:"status"` // "healthy" or "degraded"
	Uptime     string `json:"uptime"`
	ActiveJobs int    `json:"active_jobs"`
	Strategy   string `json:"session_strategy"`
	Version    string `json:"version"`
}
