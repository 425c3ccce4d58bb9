package scraper

import (
	"context"

	"github.com/use-agent/courtsched/models"
)

// Step names double as diagnostics labels and as ScrapeError.Step.
const (
	StepOpenPortal       = "open_portal"
	StepOpenSearch       = "open_search"
	StepOpenSchedule     = "open_schedule"
	StepSelectCompetency = "select_competency"
	StepSelectCourt      = "select_court"
	StepFillRol          = "fill_rol"
	StepFillYear         = "fill_year"
	StepSelectBook       = "select_book"
	StepSubmit           = "submit"
	StepAwaitResults     = "await_results"
	StepExtractRows      = "extract_rows"
)

// Selectors locates the portal's form controls. The defaults target the
// courtroom-schedule ("programación de sala") form.
type Selectors struct {
	SearchButton string
	ScheduleLink string
	Competency   string
	Court        string
	Rol          string
	Year         string
	Book         string
	Submit       string
	ResultsTable string
}

// DefaultSelectors are the selectors for the live portal.
var DefaultSelectors = Selectors{
	SearchButton: "#focus > button",
	ScheduleLink: "#sidebar > ul > li:nth-of-type(16) > a",
	Competency:   "#progComp",
	Court:        "#progCorte",
	Rol:          "#progRolCausa",
	Year:         "#progEraCausa",
	Book:         "#progTipoCausa",
	Submit:       "#btnProgConsulta",
	ResultsTable: "#dtaTableDetalleProgSala",
}

// Step is one wait-then-act unit of the lookup flow. When is nil for steps
// that always run.
type Step struct {
	Name string
	When func(q models.CaseQuery) bool
	Do   func(ctx context.Context, p Page, q models.CaseQuery) error
}

func appealsOnly(q models.CaseQuery) bool { return q.IsAppeals() }

// openSteps bring a freshly loaded portal to the schedule search form.
func openSteps(url string, sel Selectors) []Step {
	return []Step{
		{
			Name: StepOpenPortal,
			Do: func(ctx context.Context, p Page, _ models.CaseQuery) error {
				return p.Navigate(ctx, url)
			},
		},
		{
			Name: StepOpenSearch,
			Do: func(ctx context.Context, p Page, _ models.CaseQuery) error {
				return p.Click(ctx, sel.SearchButton)
			},
		},
		{
			Name: StepOpenSchedule,
			Do: func(ctx context.Context, p Page, _ models.CaseQuery) error {
				return p.Click(ctx, sel.ScheduleLink)
			},
		},
	}
}

// caseSteps fill and submit the search form for one case, ending once the
// results table is present.
func caseSteps(sel Selectors) []Step {
	return []Step{
		{
			Name: StepSelectCompetency,
			Do: func(ctx context.Context, p Page, q models.CaseQuery) error {
				return p.SelectOption(ctx, sel.Competency, q.Competency)
			},
		},
		{
			Name: StepSelectCourt,
			When: appealsOnly,
			Do: func(ctx context.Context, p Page, q models.CaseQuery) error {
				return p.SelectOption(ctx, sel.Court, q.Court)
			},
		},
		{
			Name: StepFillRol,
			Do: func(ctx context.Context, p Page, q models.CaseQuery) error {
				return p.Fill(ctx, sel.Rol, q.Rol)
			},
		},
		{
			Name: StepFillYear,
			Do: func(ctx context.Context, p Page, q models.CaseQuery) error {
				return p.Fill(ctx, sel.Year, q.Year)
			},
		},
		{
			Name: StepSelectBook,
			When: appealsOnly,
			Do: func(ctx context.Context, p Page, q models.CaseQuery) error {
				// The book list is populated on open.
				if err := p.Click(ctx, sel.Book); err != nil {
					return err
				}
				return p.SelectOption(ctx, sel.Book, q.Book)
			},
		},
		{
			Name: StepSubmit,
			Do: func(ctx context.Context, p Page, _ models.CaseQuery) error {
				return p.Click(ctx, sel.Submit)
			},
		},
		{
			Name: StepAwaitResults,
			Do: func(ctx context.Context, p Page, _ models.CaseQuery) error {
				return p.WaitInteractable(ctx, sel.ResultsTable)
			},
		},
	}
}
