package models

import "strings"

// NoDataMarker is the text the portal renders in a lone cell when a search
// matched nothing.
const NoDataMarker = "Ningún dato disponible"

// ScheduleRow is the ordered cell text of one results-table row. When
// present, the last cell holds a dd/mm/yyyy date.
type ScheduleRow []string

// ResultKind discriminates the CaseResult variants.
type ResultKind string

const (
	ResultRows            ResultKind = "rows"
	ResultValidationError ResultKind = "validation_error"
	ResultScrapeError     ResultKind = "scrape_error"
)

// CaseResult is the outcome for one input case. Exactly one of Rows or
// Error is meaningful, selected by Kind.
type CaseResult struct {
	Kind  ResultKind    `json:"kind"`
	Rows  []ScheduleRow `json:"rows,omitempty"`
	Error string        `json:"error,omitempty"`
}

// RowsResult builds a successful result. A nil slice is normalised to an
// empty one.
func RowsResult(rows []ScheduleRow) CaseResult {
	if rows == nil {
		rows = []ScheduleRow{}
	}
	return CaseResult{Kind: ResultRows, Rows: rows}
}

// ValidationFailure builds the result for a case rejected before scraping.
func ValidationFailure(msg string) CaseResult {
	return CaseResult{Kind: ResultValidationError, Error: msg}
}

// ScrapeFailure builds the result for a case that failed (or was aborted)
// inside the browser session.
func ScrapeFailure(msg string) CaseResult {
	return CaseResult{Kind: ResultScrapeError, Error: msg}
}

// OK reports whether the result carries rows.
func (r CaseResult) OK() bool { return r.Kind == ResultRows }

// IsNoData reports whether rows is the portal's "no data available"
// signal: a single row with a single cell containing NoDataMarker.
func IsNoData(rows []ScheduleRow) bool {
	return len(rows) == 1 && len(rows[0]) == 1 && strings.Contains(rows[0][0], NoDataMarker)
}
