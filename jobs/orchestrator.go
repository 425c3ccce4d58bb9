// Package jobs runs accepted batches in the background: validation, one
// browser session per job, sequential lookups, report rendering and the
// single outcome notification.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/courtsched/config"
	"github.com/use-agent/courtsched/metrics"
	"github.com/use-agent/courtsched/models"
	"github.com/use-agent/courtsched/report"
	"github.com/use-agent/courtsched/scraper"
	"github.com/use-agent/courtsched/validator"
)

// AbortedMessage is the result recorded for cases skipped after an earlier
// case in the same job failed.
const AbortedMessage = "aborted: previous case failed"

// headerRows is how many leading rows of the results table are headers.
const headerRows = 2

// Session is one job's browser session.
type Session interface {
	Page() scraper.Page
	// OwnsLifecycle is false for browsers that belong to another process
	// or a remote provider; those are detached, never closed.
	OwnsLifecycle() bool
	ClosePage() error
	CloseBrowser() error
	Detach() error
}

// SessionProvider opens a session. A non-empty cdpURL pins the job to that
// browser.
type SessionProvider interface {
	Acquire(ctx context.Context, cdpURL string) (Session, error)
}

// ProviderFunc adapts a function to SessionProvider.
type ProviderFunc func(ctx context.Context, cdpURL string) (Session, error)

func (f ProviderFunc) Acquire(ctx context.Context, cdpURL string) (Session, error) {
	return f(ctx, cdpURL)
}

// Scraper performs the portal lookups.
type Scraper interface {
	Open(ctx context.Context, p scraper.Page) error
	Run(ctx context.Context, p scraper.Page, q models.CaseQuery) ([]models.ScheduleRow, error)
}

// Diagnostics captures failure artifacts. It must not fail.
type Diagnostics interface {
	Capture(ctx context.Context, p scraper.Page, label string)
}

// Notifier delivers the outcome of a job.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}

// Orchestrator accepts batches and runs each as an independent job.
type Orchestrator struct {
	sessions SessionProvider
	scraper  Scraper
	diag     Diagnostics
	notifier Notifier
	registry *Registry
	maxCases int
	now      func() time.Time

	wg sync.WaitGroup
}

// NewOrchestrator wires the job pipeline.
func NewOrchestrator(
	sessions SessionProvider,
	s Scraper,
	diag Diagnostics,
	notifier Notifier,
	registry *Registry,
	cfg config.JobsConfig,
) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		scraper:  s,
		diag:     diag,
		notifier: notifier,
		registry: registry,
		maxCases: cfg.MaxCases,
		now:      time.Now,
	}
}

// Registry returns the store the orchestrator publishes job status to.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// NewJob validates the batch shape and records a pending job without
// starting it.
func (o *Orchestrator) NewJob(cases []models.CaseQuery, cdpURL string) (*models.Job, error) {
	if len(cases) == 0 {
		return nil, models.NewError(models.ErrCodeInvalidInput, "batch has no cases", nil)
	}
	if o.maxCases > 0 && len(cases) > o.maxCases {
		return nil, models.NewError(models.ErrCodeInvalidInput,
			fmt.Sprintf("batch has %d cases, the limit is %d", len(cases), o.maxCases), nil)
	}

	now := o.now()
	job := &models.Job{
		ID:        uuid.NewString(),
		Status:    models.JobPending,
		Cases:     cases,
		CreatedAt: now,
		UpdatedAt: now,
		CDPURL:    cdpURL,
	}
	o.registry.Put(job)
	return job, nil
}

// Submit accepts a batch and runs it in the background. It returns as soon
// as the job is recorded; the job cannot be cancelled and outlives the
// caller's request.
func (o *Orchestrator) Submit(ctx context.Context, cases []models.CaseQuery, cdpURL string) (*models.Job, error) {
	job, err := o.NewJob(cases, cdpURL)
	if err != nil {
		return nil, err
	}

	jobCtx := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("job goroutine panicked", "job_id", job.ID, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		o.Run(jobCtx, job)
	}()

	slog.Info("job accepted", "job_id", job.ID, "cases", len(cases))
	return job, nil
}

// Wait blocks until every submitted job has finished or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes job synchronously and sends its one notification, which
// it also returns.
func (o *Orchestrator) Run(ctx context.Context, job *models.Job) *models.Notification {
	start := o.now()
	metrics.JobStarted()
	o.registry.Advance(job.ID, models.JobRunning, nil, "")
	log := slog.With("job_id", job.ID)
	log.Info("job started", "cases", len(job.Cases))

	results, jobErr := o.execute(ctx, job, log)

	status := models.JobCompleted
	errMsg := ""
	if jobErr != nil {
		status = models.JobFailed
		errMsg = jobErr.Error()
	}
	o.registry.Advance(job.ID, status, results, errMsg)

	msg := o.notification(job, status, results, errMsg)
	if err := o.notifier.Notify(ctx, msg); err != nil {
		metrics.Notification("failed")
		log.Error("notification failed", "error", err)
	} else {
		metrics.Notification("delivered")
	}

	for _, r := range results {
		metrics.CaseOutcome(string(r.Kind))
	}
	metrics.JobFinished(string(status), o.now().Sub(start))
	log.Info("job finished", "status", status, "elapsed", o.now().Sub(start))
	return msg
}

// execute fills one result per input case. A non-nil error fails the job;
// results still cover every case.
func (o *Orchestrator) execute(ctx context.Context, job *models.Job, log *slog.Logger) (results []models.CaseResult, jobErr error) {
	results = make([]models.CaseResult, len(job.Cases))

	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", "panic", r, "stack", string(debug.Stack()))
			jobErr = models.NewError(models.ErrCodeInternal, fmt.Sprintf("job panicked: %v", r), nil)
			for i := range results {
				if results[i].Kind == "" {
					results[i] = models.ScrapeFailure(AbortedMessage)
				}
			}
		}
	}()

	valid, invalid := validator.Partition(job.Cases)
	for i, msg := range invalid {
		results[i] = models.ValidationFailure(msg)
		log.Info("case rejected", "case", i, "reason", msg)
	}
	if len(valid) == 0 {
		return results, nil
	}

	sess, err := o.sessions.Acquire(ctx, job.CDPURL)
	if err != nil {
		log.Error("session acquisition failed", "error", err)
		for _, v := range valid {
			results[v.Index] = models.ScrapeFailure(err.Error())
		}
		return results, err
	}
	defer release(sess, log)

	page := sess.Page()
	if err := o.scraper.Open(ctx, page); err != nil {
		log.Error("portal unavailable", "step", models.StepOf(err), "error", err)
		metrics.StepFailed(models.StepOf(err))
		o.diag.Capture(ctx, page, diagnosticsLabel(job.ID, -1, models.StepOf(err)))
		for _, v := range valid {
			results[v.Index] = models.ScrapeFailure(err.Error())
		}
		return results, err
	}

	for n, v := range valid {
		rows, err := o.scraper.Run(ctx, page, v.Case)
		if err != nil {
			step := models.StepOf(err)
			log.Error("case failed, aborting job", "case", v.Index, "step", step, "error", err)
			metrics.StepFailed(step)
			o.diag.Capture(ctx, page, diagnosticsLabel(job.ID, v.Index, step))

			results[v.Index] = models.ScrapeFailure(err.Error())
			for _, rest := range valid[n+1:] {
				results[rest.Index] = models.ScrapeFailure(AbortedMessage)
			}
			return results, err
		}
		results[v.Index] = models.RowsResult(dropHeaders(rows))
		log.Debug("case done", "case", v.Index, "rows", len(results[v.Index].Rows))
	}
	return results, nil
}

// release closes the page, then closes an owned browser or detaches from a
// foreign one.
func release(sess Session, log *slog.Logger) {
	if err := sess.ClosePage(); err != nil {
		log.Warn("close page failed", "error", err)
	}
	if sess.OwnsLifecycle() {
		if err := sess.CloseBrowser(); err != nil {
			log.Warn("close browser failed", "error", err)
		}
		return
	}
	if err := sess.Detach(); err != nil {
		log.Warn("detach from browser failed", "error", err)
	}
}

func (o *Orchestrator) notification(job *models.Job, status models.JobStatus, results []models.CaseResult, errMsg string) *models.Notification {
	now := o.now()
	msg := &models.Notification{
		JobID:       job.ID,
		Status:      status,
		Cases:       job.Cases,
		Results:     results,
		Summary:     report.Summarize(now, results),
		Error:       errMsg,
		GeneratedAt: now,
	}
	if status != models.JobCompleted {
		return msg
	}

	var err error
	if msg.ReportHTML, err = report.Render(now, job.Cases, results); err != nil {
		slog.Error("report rendering failed", "job_id", job.ID, "error", err)
	}
	if msg.ReportMarkdown, err = report.Markdown(now, job.Cases, results); err != nil {
		slog.Error("markdown rendering failed", "job_id", job.ID, "error", err)
	}
	return msg
}

func dropHeaders(rows []models.ScheduleRow) []models.ScheduleRow {
	if len(rows) <= headerRows {
		return []models.ScheduleRow{}
	}
	return rows[headerRows:]
}

// diagnosticsLabel names artifacts after the job, the 1-based case number
// (0 while opening the portal) and the failing step.
func diagnosticsLabel(jobID string, index int, step string) string {
	if step == "" {
		step = "unknown"
	}
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	return fmt.Sprintf("%s_case%d_%s", jobID, index+1, step)
}
