package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/use-agent/courtsched/config"
	"github.com/use-agent/courtsched/models"
)

func testConfig(url, secret string) config.NotifyConfig {
	return config.NotifyConfig{
		URL:            url,
		Secret:         secret,
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
		WriteTimeout:   time.Second,
		PoolTimeout:    time.Second,
	}
}

func sampleNotification() *models.Notification {
	return &models.Notification{
		JobID:   "job-1",
		Status:  models.JobCompleted,
		Cases:   []models.CaseQuery{{Competency: "Civil", Rol: "C-1", Year: "2024"}},
		Results: []models.CaseResult{models.RowsResult([]models.ScheduleRow{{"Sala 1", "3", "C-1-2024", "01/01/2024", "02/02/2024"}})},
	}
}

func TestNotify_SignedDelivery(t *testing.T) {
	var (
		gotBody []byte
		gotSig  string
		gotCT   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		gotCT = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	msg := sampleNotification()
	if err := NewNotifier(testConfig(srv.URL, "s3cret")).Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if want := "sha256=" + Sign("s3cret", gotBody); gotSig != want {
		t.Errorf("signature = %q, want %q", gotSig, want)
	}
	if gotCT != "application/json" {
		t.Errorf("content-type = %q", gotCT)
	}

	var decoded models.Notification
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if diff := cmp.Diff(msg.Results, decoded.Results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestNotify_NoSecretNoSignature(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
	}))
	defer srv.Close()

	if err := NewNotifier(testConfig(srv.URL, "")).Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if gotSig != "" {
		t.Errorf("unexpected signature %q", gotSig)
	}
}

func TestNotify_Non2xxIsErrorWithoutRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewNotifier(testConfig(srv.URL, "")).Notify(context.Background(), sampleNotification())
	if got := models.CodeOf(err); got != models.ErrCodeNotification {
		t.Fatalf("code = %q, want %q (err %v)", got, models.ErrCodeNotification, err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("endpoint hit %d times, want 1", n)
	}
}

func TestNotify_ReadTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL, "")
	cfg.ReadTimeout = 50 * time.Millisecond

	start := time.Now()
	err := NewNotifier(cfg).Notify(context.Background(), sampleNotification())
	if got := models.CodeOf(err); got != models.ErrCodeNotification {
		t.Fatalf("code = %q, want %q (err %v)", got, models.ErrCodeNotification, err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("read timeout not enforced, took %v", elapsed)
	}
}

func TestNotify_UnreachableEndpoint(t *testing.T) {
	err := NewNotifier(testConfig("http://127.0.0.1:1/hook", "")).Notify(context.Background(), sampleNotification())
	if got := models.CodeOf(err); got != models.ErrCodeNotification {
		t.Fatalf("code = %q, want %q (err %v)", got, models.ErrCodeNotification, err)
	}
}

func TestNotify_DisabledSkips(t *testing.T) {
	n := NewNotifier(testConfig("", ""))
	if n.Enabled() {
		t.Fatal("notifier without URL reports enabled")
	}
	if err := n.Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("disabled notifier must not fail: %v", err)
	}
}
