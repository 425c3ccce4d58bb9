package scraper

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/use-agent/courtsched/config"
	"github.com/use-agent/courtsched/models"
)

// pointerArea is the square, in CSS pixels, random pointer moves land in.
const pointerArea = 800

// Engine drives the portal's schedule search against an open page. It holds
// no per-page state; one Engine can serve many concurrent jobs, as long as
// each job uses its own page.
type Engine struct {
	cfg      config.PortalConfig
	open     []Step
	steps    []Step
	sel      Selectors
	humanize bool
}

// NewEngine builds an engine for the live portal selectors.
func NewEngine(cfg config.PortalConfig) *Engine {
	return NewEngineWithSelectors(cfg, DefaultSelectors)
}

// NewEngineWithSelectors builds an engine against custom selectors.
func NewEngineWithSelectors(cfg config.PortalConfig, sel Selectors) *Engine {
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 30 * time.Second
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 60 * time.Second
	}
	return &Engine{
		cfg:      cfg,
		open:     openSteps(cfg.URL, sel),
		steps:    caseSteps(sel),
		sel:      sel,
		humanize: cfg.Humanize,
	}
}

// Open loads the portal and navigates to the schedule search form. It runs
// once per session, before the first Run.
func (e *Engine) Open(ctx context.Context, p Page) error {
	return e.runSteps(ctx, p, models.CaseQuery{}, e.open)
}

// Run performs one lookup and returns every row of the results table,
// header rows included. A lone "no data" row is returned as-is.
//
// Failures are *models.Error values whose Step names the step that failed.
func (e *Engine) Run(ctx context.Context, p Page, q models.CaseQuery) ([]models.ScheduleRow, error) {
	if err := e.runSteps(ctx, p, q, e.steps); err != nil {
		return nil, err
	}

	extractCtx, cancel := context.WithTimeout(ctx, e.cfg.StepTimeout)
	defer cancel()

	tableHTML, err := p.OuterHTML(extractCtx, e.sel.ResultsTable)
	if err != nil {
		return nil, stepError(StepExtractRows, err)
	}
	rows, err := ParseTable(tableHTML)
	if err != nil {
		return nil, stepError(StepExtractRows, err)
	}
	return rows, nil
}

func (e *Engine) runSteps(ctx context.Context, p Page, q models.CaseQuery, steps []Step) error {
	for _, s := range steps {
		if s.When != nil && !s.When(q) {
			continue
		}

		timeout := e.cfg.StepTimeout
		if s.Name == StepOpenPortal {
			timeout = e.cfg.NavigationTimeout
		}
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		err := s.Do(stepCtx, p, q)
		cancel()
		if err != nil {
			slog.Debug("portal step failed", "step", s.Name, "elapsed", time.Since(start), "error", err)
			return stepError(s.Name, err)
		}
		slog.Debug("portal step done", "step", s.Name, "elapsed", time.Since(start))

		e.jitter(ctx, p)
	}
	return nil
}

// jitter moves the pointer somewhere random. It has no functional effect,
// so failures are ignored.
func (e *Engine) jitter(ctx context.Context, p Page) {
	if !e.humanize {
		return
	}
	_ = p.MoveMouse(ctx, rand.Float64()*pointerArea, rand.Float64()*pointerArea)
}

// stepError wraps raw errors into typed errors tagged with the step.
func stepError(step string, err error) *models.Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewStepError(models.ErrCodeTimeout, step, "step "+step+" timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewStepError(models.ErrCodeTimeout, step, "step "+step+" canceled", err)
	default:
		return models.NewStepError(models.ErrCodeScrape, step, "step "+step+" failed", err)
	}
}
