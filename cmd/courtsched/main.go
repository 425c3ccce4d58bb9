package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/courtsched/api"
	"github.com/use-agent/courtsched/config"
	"github.com/use-agent/courtsched/jobs"
	"github.com/use-agent/courtsched/metrics"
	"github.com/use-agent/courtsched/scraper"
	"github.com/use-agent/courtsched/session"
	"github.com/use-agent/courtsched/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	slog.SetDefault(cfg.Log.NewLogger(os.Stdout))
	slog.Info("courtsched starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"strategy", cfg.Session.ResolveStrategy(""),
	)

	// A misconfigured session strategy must stop the service before any
	// job is accepted.
	if err := cfg.Session.Validate(); err != nil {
		slog.Error("invalid session configuration", "error", err)
		os.Exit(1)
	}

	metrics.MustRegister()

	// ── 3. Wire the job pipeline ────────────────────────────────────
	provider := session.NewProvider(cfg.Session)
	sessions := jobs.ProviderFunc(func(ctx context.Context, cdpURL string) (jobs.Session, error) {
		h, err := provider.Acquire(ctx, cdpURL)
		if err != nil {
			return nil, err
		}
		return h, nil
	})

	notifier := webhook.NewNotifier(cfg.Notify)
	if !notifier.Enabled() {
		slog.Warn("COURTSCHED_NOTIFY_URL is not set, job outcomes will only be logged")
	}

	registry := jobs.NewRegistry(cfg.Jobs.Retention, 0)
	defer registry.Close()

	orch := jobs.NewOrchestrator(
		sessions,
		scraper.NewEngine(cfg.Portal),
		scraper.NewDiagnostics(cfg.Portal.ArtifactsDir),
		notifier,
		registry,
		cfg.Jobs,
	)

	// ── 4. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(orch, cfg, time.Now())

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Running jobs hold browsers; give them a chance to finish and notify.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.Jobs.DrainTimeout)
	defer drainCancel()
	if err := orch.Wait(drainCtx); err != nil {
		slog.Warn("jobs still running at shutdown", "active", registry.Active())
	}

	slog.Info("courtsched stopped")
}
