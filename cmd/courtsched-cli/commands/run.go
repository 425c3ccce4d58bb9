package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/use-agent/courtsched/config"
	"github.com/use-agent/courtsched/jobs"
	"github.com/use-agent/courtsched/models"
	"github.com/use-agent/courtsched/scraper"
	"github.com/use-agent/courtsched/session"
	"github.com/use-agent/courtsched/webhook"
)

var (
	runFile   *string
	runOut    *string
	runCDPURL *string
)

func init() {
	runFile = runCmd.Flags().StringP("file", "f", "", "Batch to run (.xlsx or .json).")
	runOut = runCmd.Flags().StringP("out", "o", "report.html", "Where to write the HTML report.")
	runCDPURL = runCmd.Flags().String("cdp-url", "", "DevTools endpoint of a running browser to use instead of the configured strategy.")
	_ = runCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run --file <cases> [--out report.html] [--cdp-url <endpoint>]",
	Short: "Runs a batch in the foreground and writes its report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if *runCDPURL == "" {
			if err := cfg.Session.Validate(); err != nil {
				return err
			}
		}

		cases, err := readCases(*runFile)
		if err != nil {
			return err
		}

		orch := newOrchestrator(cfg)
		defer orch.Registry().Close()

		job, err := orch.NewJob(cases, *runCDPURL)
		if err != nil {
			return err
		}
		msg := orch.Run(cmd.Context(), job)

		printSummary(cmd, msg)
		if msg.ReportHTML != "" {
			if err := os.WriteFile(*runOut, []byte(msg.ReportHTML), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			slog.Info("report written", "path", *runOut)
		}
		if msg.Status == models.JobFailed {
			return fmt.Errorf("job failed: %s", msg.Error)
		}
		return nil
	},
}

func newOrchestrator(cfg *config.Config) *jobs.Orchestrator {
	provider := session.NewProvider(cfg.Session)
	sessions := jobs.ProviderFunc(func(ctx context.Context, cdpURL string) (jobs.Session, error) {
		h, err := provider.Acquire(ctx, cdpURL)
		if err != nil {
			return nil, err
		}
		return h, nil
	})
	return jobs.NewOrchestrator(
		sessions,
		scraper.NewEngine(cfg.Portal),
		scraper.NewDiagnostics(cfg.Portal.ArtifactsDir),
		webhook.NewNotifier(cfg.Notify),
		jobs.NewRegistry(0, 0),
		cfg.Jobs,
	)
}

func printSummary(cmd *cobra.Command, msg *models.Notification) {
	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"#", "Rol", "Result", "Rows", "Future", "Error"})
	for i, r := range msg.Results {
		s := msg.Summary[i]
		t.AppendRow(table.Row{i + 1, msg.Cases[i].Rol, r.Kind, s.Rows, s.FutureRows, r.Error})
	}
	t.SetCaption("job %s: %s", msg.JobID, msg.Status)
	t.Render()
}
