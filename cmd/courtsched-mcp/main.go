package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/courtsched/models"
)

const pollInterval = 2 * time.Second

func main() {
	apiURL := os.Getenv("COURTSCHED_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("COURTSCHED_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "COURTSCHED_API_KEY is required")
		os.Exit(1)
	}

	c := newClient(apiURL, apiKey)

	s := server.NewMCPServer(
		"courtsched",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	lookupTool := mcp.NewTool("lookup_schedules",
		mcp.WithDescription("Look up hearing schedules for court cases on the judiciary's virtual office portal. Cases run one after another in a single browser session; a failing case aborts the rest of the batch."),
		mcp.WithArray("cases",
			mcp.Required(),
			mcp.Description("Cases to look up. Each has competency, rol and year; appeals cases ('Corte Apelaciones') also need court and book."),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"competency": map[string]any{"type": "string"},
					"rol":        map[string]any{"type": "string"},
					"year":       map[string]any{"type": "string"},
					"court":      map[string]any{"type": "string"},
					"book":       map[string]any{"type": "string"},
				},
				"required": []string{"competency", "rol", "year"},
			}),
		),
		mcp.WithString("cdp_url",
			mcp.Description("Optional DevTools endpoint of an already-running browser to use instead of the server's session strategy"),
		),
		mcp.WithBoolean("wait",
			mcp.Description("Wait for the job to finish and return its results (default: true)"),
		),
	)
	s.AddTool(lookupTool, handleLookup(c))

	statusTool := mcp.NewTool("job_status",
		mcp.WithDescription("Get the status and, once finished, the results of a schedule lookup job."),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by lookup_schedules"),
		),
	)
	s.AddTool(statusTool, handleStatus(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// client talks to the courtsched HTTP API.
type client struct {
	http *resty.Client
}

func newClient(apiURL, apiKey string) *client {
	return &client{http: resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetHeader("X-API-Key", apiKey).
		SetTimeout(30 * time.Second)}
}

func (c *client) submit(ctx context.Context, req models.JobRequest) (*models.JobAccepted, error) {
	var accepted models.JobAccepted
	var apiErr models.ErrorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&accepted).
		SetError(&apiErr).
		Post("/api/v1/jobs")
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp, &apiErr)
	}
	return &accepted, nil
}

func (c *client) status(ctx context.Context, id string) (*models.JobStatusResponse, error) {
	var status models.JobStatusResponse
	var apiErr models.ErrorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&status).
		SetError(&apiErr).
		Get("/api/v1/jobs/{id}")
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp, &apiErr)
	}
	return &status, nil
}

// waitFor polls until the job leaves pending/running or ctx ends.
func (c *client) waitFor(ctx context.Context, id string) (*models.JobStatusResponse, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			st, err := c.status(ctx, id)
			if err != nil {
				return nil, err
			}
			if st.Status.Terminal() {
				return st, nil
			}
		}
	}
}

func apiError(resp *resty.Response, body *models.ErrorResponse) error {
	if body.Error != nil {
		return fmt.Errorf("[%s] %s", body.Error.Code, body.Error.Message)
	}
	return fmt.Errorf("API returned %s", resp.Status())
}

func handleLookup(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := request.GetArguments()["cases"]
		if !ok {
			return mcp.NewToolResultError("cases is required"), nil
		}
		var cases []models.CaseQuery
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &cases); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cases must be an array of case objects: %v", err)), nil
		}

		accepted, err := c.submit(ctx, models.JobRequest{
			Cases:  cases,
			CDPURL: request.GetString("cdp_url", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !request.GetBool("wait", true) {
			return mcp.NewToolResultText(fmt.Sprintf("Job %s accepted (%d cases). Use job_status to follow it.", accepted.JobID, accepted.Total)), nil
		}

		st, err := c.waitFor(ctx, accepted.JobID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("waiting for job %s failed: %v", accepted.JobID, err)), nil
		}
		return mcp.NewToolResultText(formatStatus(st)), nil
	}
}

func handleStatus(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("job_id")
		if err != nil {
			return mcp.NewToolResultError("job_id is required"), nil
		}
		st, err := c.status(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatStatus(st)), nil
	}
}

func formatStatus(st *models.JobStatusResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Job %s: %s (%d cases)\n", st.ID, st.Status, st.Total)
	if st.Error != "" {
		fmt.Fprintf(&sb, "Error: %s\n", st.Error)
	}

	for i, r := range st.Results {
		fmt.Fprintf(&sb, "\n--- Case %d ---\n", i+1)
		switch {
		case !r.OK():
			fmt.Fprintf(&sb, "%s: %s\n", r.Kind, r.Error)
		case len(r.Rows) == 0:
			sb.WriteString("No results.\n")
		case models.IsNoData(r.Rows):
			sb.WriteString(r.Rows[0][0] + "\n")
		default:
			t := table.NewWriter()
			for _, row := range r.Rows {
				cells := make(table.Row, len(row))
				for j, cell := range row {
					cells[j] = cell
				}
				t.AppendRow(cells)
			}
			t.SetStyle(table.StyleLight)
			sb.WriteString(t.Render() + "\n")
		}
	}
	return sb.String()
}
