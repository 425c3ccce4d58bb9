// Package report renders a finished batch for humans: an email-safe HTML
// document and a Markdown rendition of the same content.
package report

import (
	"strings"
	"time"
	_ "time/tzdata" // the report must not depend on the host zoneinfo

	"github.com/use-agent/courtsched/models"
)

const dateLayout = "02/01/2006"

// Santiago is the portal's timezone; "today" is evaluated there.
var Santiago = mustLoadLocation("America/Santiago")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Summarize classifies every result against the calendar day of now in
// Santiago. A row is future when its last cell parses as dd/mm/yyyy and
// falls strictly after that day.
func Summarize(now time.Time, results []models.CaseResult) []models.CaseSummary {
	today := civilDay(now.In(Santiago))

	out := make([]models.CaseSummary, len(results))
	for i, r := range results {
		s := models.CaseSummary{Index: i, Kind: string(r.Kind)}
		if r.OK() {
			s.NoData = models.IsNoData(r.Rows)
			s.Future = make([]bool, len(r.Rows))
			for j, row := range r.Rows {
				if len(row) == 0 {
					continue
				}
				s.Rows++
				if isFuture(row, today) {
					s.Future[j] = true
					s.FutureRows++
				}
			}
		}
		out[i] = s
	}
	return out
}

func isFuture(row models.ScheduleRow, today time.Time) bool {
	if len(row) == 0 {
		return false
	}
	d, ok := parseDate(row[len(row)-1])
	return ok && d.After(today)
}

// parseDate reads a dd/mm/yyyy cell as a civil date.
func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// civilDay drops the clock and zone, keeping the calendar date in t's
// location.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
