package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/use-agent/courtsched/config"
	"github.com/use-agent/courtsched/models"
	"github.com/use-agent/courtsched/sheet"
)

var rootCmd = &cobra.Command{
	Use:          "courtsched-cli",
	Short:        "courtsched-cli runs and checks court schedule lookups without the HTTP service.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(config.Load().Log.NewLogger(cmd.ErrOrStderr()))
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// readCases loads a batch from an .xlsx workbook or a JSON array.
func readCases(path string) ([]models.CaseQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return sheet.ParseCases(f)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	var cases []models.CaseQuery
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("%s: expected a JSON array of cases: %w", path, err)
	}
	return cases, nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}
