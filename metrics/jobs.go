package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtsched_jobs_total",
			Help: "Finished jobs by terminal status (completed/failed).",
		},
		[]string{"status"},
	)

	jobsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "courtsched_jobs_active",
			Help: "Jobs accepted and not yet finished.",
		},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courtsched_job_duration_seconds",
			Help:    "Wall time from job start to notification.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"status"},
	)

	casesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtsched_cases_total",
			Help: "Per-case outcomes (rows/validation_error/scrape_error).",
		},
		[]string{"kind"},
	)

	stepFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtsched_step_failures_total",
			Help: "Scrape failures by the portal step that failed.",
		},
		[]string{"step"},
	)

	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtsched_sessions_total",
			Help: "Browser session acquisitions by strategy and success.",
		},
		[]string{"strategy", "success"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtsched_notifications_total",
			Help: "Notification attempts by outcome (delivered/failed).",
		},
		[]string{"outcome"},
	)
)

func init() {
	register(
		jobsTotal,
		jobsActive,
		jobDuration,
		casesTotal,
		stepFailures,
		sessionsTotal,
		notificationsTotal,
	)
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func JobStarted() { jobsActive.Inc() }

// JobFinished records a terminal job and its duration.
func JobFinished(status string, elapsed time.Duration) {
	jobsActive.Dec()
	jobsTotal.WithLabelValues(norm(status)).Inc()
	jobDuration.WithLabelValues(norm(status)).Observe(elapsed.Seconds())
}

func CaseOutcome(kind string) {
	casesTotal.WithLabelValues(norm(kind)).Inc()
}

func StepFailed(step string) {
	if step == "" {
		step = "unknown"
	}
	stepFailures.WithLabelValues(norm(step)).Inc()
}

func SessionAcquired(strategy string, ok bool) {
	success := "false"
	if ok {
		success = "true"
	}
	sessionsTotal.WithLabelValues(norm(strategy), success).Inc()
}

func Notification(outcome string) {
	notificationsTotal.WithLabelValues(norm(outcome)).Inc()
}
