package session

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/use-agent/courtsched/config"
)

// browserbaseClient creates remote browser sessions on Browserbase.
type browserbaseClient struct {
	projectID string
	client    *resty.Client
}

type createSessionRequest struct {
	ProjectID string `json:"projectId"`
}

type createSessionResponse struct {
	ID         string `json:"id"`
	ConnectURL string `json:"connectUrl"`
}

func newBrowserbaseClient(cfg config.BrowserbaseConfig) *browserbaseClient {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("X-BB-API-Key", cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	return &browserbaseClient{projectID: cfg.ProjectID, client: client}
}

// createSession asks for a new remote browser and returns its session id
// and CDP websocket URL.
func (b *browserbaseClient) createSession(ctx context.Context) (createSessionResponse, error) {
	var out createSessionResponse
	res, err := b.client.R().
		SetContext(ctx).
		SetBody(createSessionRequest{ProjectID: b.projectID}).
		SetResult(&out).
		Post("/v1/sessions")
	if err != nil {
		return out, fmt.Errorf("create browserbase session: %w", err)
	}
	if res.IsError() {
		return out, fmt.Errorf("create browserbase session: %s: %s", res.Status(), res.String())
	}
	if out.ConnectURL == "" {
		return out, fmt.Errorf("create browserbase session: response has no connectUrl")
	}
	return out, nil
}
