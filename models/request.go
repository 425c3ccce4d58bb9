package models

// JobRequest is the payload for POST /api/v1/jobs.
type JobRequest struct {
	// Cases is the ordered list of lookups. Required, at least one.
	Cases []CaseQuery `json:"cases" binding:"required"`

	// CDPURL connects the job to an already-running browser instead of the
	// configured session strategy.
	CDPURL string `json:"cdp_url,omitempty" binding:"omitempty,url"`
}
