package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/use-agent/courtsched/api"
	"github.com/use-agent/courtsched/config"
	"github.com/use-agent/courtsched/jobs"
	"github.com/use-agent/courtsched/models"
	"github.com/use-agent/courtsched/scraper"
)

const testKey = "secret-key"

type nopScraper struct{}

func (nopScraper) Open(context.Context, scraper.Page) error { return nil }
func (nopScraper) Run(context.Context, scraper.Page, models.CaseQuery) ([]models.ScheduleRow, error) {
	return nil, nil
}

type nopDiagnostics struct{}

func (nopDiagnostics) Capture(context.Context, scraper.Page, string) {}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*models.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

type testServer struct {
	handler  http.Handler
	orch     *jobs.Orchestrator
	notifier *recordingNotifier
	cdpURLs  chan string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{notifier: &recordingNotifier{}, cdpURLs: make(chan string, 8)}

	// No browser in tests: every acquisition fails.
	provider := jobs.ProviderFunc(func(_ context.Context, cdpURL string) (jobs.Session, error) {
		s.cdpURLs <- cdpURL
		return nil, models.NewError(models.ErrCodeSession, "no browser", errors.New("offline"))
	})

	registry := jobs.NewRegistry(time.Hour, time.Hour)
	t.Cleanup(registry.Close)
	s.orch = jobs.NewOrchestrator(provider, nopScraper{}, nopDiagnostics{}, s.notifier, registry, config.JobsConfig{MaxCases: 3})

	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		Session:   config.SessionConfig{Strategy: config.StrategyLocal},
		Auth:      config.AuthConfig{Enabled: true, APIKeys: []string{testKey}},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}
	s.handler = api.NewRouter(s.orch, cfg, time.Now())
	return s
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.orch.Wait(ctx); err != nil {
		t.Fatalf("jobs did not finish: %v", err)
	}
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testKey)
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth_NoAuth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	h := decode[models.HealthResponse](t, rec)
	if h.Status != "healthy" || h.Strategy != config.StrategyLocal || h.ActiveJobs != 0 {
		t.Errorf("health = %+v", h)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestJobs_RequireAPIKey(t *testing.T) {
	s := newTestServer(t)

	for name, header := range map[string]string{"missing": "", "wrong": "nope"} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/x", nil)
			if header != "" {
				req.Header.Set("X-API-Key", header)
			}
			rec := s.do(t, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if e := decode[models.ErrorResponse](t, rec); e.Error.Code != models.ErrCodeUnauthorized {
				t.Errorf("code = %q", e.Error.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/x", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if rec := s.do(t, req); rec.Code != http.StatusNotFound {
		t.Errorf("bearer auth: status = %d, want 404", rec.Code)
	}
}

func TestPostJob_AcceptsAndRunsInBackground(t *testing.T) {
	s := newTestServer(t)

	body := `{"cases":[
		{"competency":"Civil","rol":"C-1","year":"2024"},
		{"json":{"competency":"Nope","rol":"2","year":2024}}
	],"cdp_url":"http://127.0.0.1:9222"}`
	rec := s.do(t, postJSON("/api/v1/jobs", body))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	accepted := decode[models.JobAccepted](t, rec)
	if accepted.JobID == "" || accepted.Total != 2 || accepted.Status != models.JobPending {
		t.Errorf("accepted = %+v", accepted)
	}

	s.wait(t)
	if got := <-s.cdpURLs; got != "http://127.0.0.1:9222" {
		t.Errorf("cdp url = %q", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+accepted.JobID, nil)
	req.Header.Set("X-API-Key", testKey)
	rec = s.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	status := decode[models.JobStatusResponse](t, rec)
	if status.Status != models.JobFailed || len(status.Results) != 2 {
		t.Fatalf("status = %+v", status)
	}
	if status.Results[0].Kind != models.ResultScrapeError || status.Results[1].Kind != models.ResultValidationError {
		t.Errorf("results = %+v", status.Results)
	}

	s.notifier.mu.Lock()
	defer s.notifier.mu.Unlock()
	if len(s.notifier.sent) != 1 || s.notifier.sent[0].JobID != accepted.JobID {
		t.Errorf("notifications = %+v", s.notifier.sent)
	}
}

func TestPostJob_RejectsBadRequests(t *testing.T) {
	s := newTestServer(t)
	tests := map[string]string{
		"malformed json":  `{"cases":`,
		"missing cases":   `{}`,
		"empty cases":     `{"cases":[]}`,
		"over the limit":  `{"cases":[{},{},{},{}]}`,
		"invalid cdp url": `{"cases":[{}],"cdp_url":"not a url"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, postJSON("/api/v1/jobs", body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			if e := decode[models.ErrorResponse](t, rec); e.Error.Code != models.ErrCodeInvalidInput {
				t.Errorf("code = %q", e.Error.Code)
			}
		})
	}
}

func TestUploadJob(t *testing.T) {
	s := newTestServer(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]any{"Competencia", "Rol", "Año"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{"Laboral", "O-7", "2023"})
	wb, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "cases.xlsx")
	_, _ = part.Write(wb.Bytes())
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Key", testKey)
	rec := s.do(t, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if a := decode[models.JobAccepted](t, rec); a.Total != 1 {
		t.Errorf("total = %d", a.Total)
	}
	s.wait(t)
}

func TestUploadJob_MissingFile(t *testing.T) {
	s := newTestServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("cdp_url", "ws://x")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Key", testKey)
	if rec := s.do(t, req); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
