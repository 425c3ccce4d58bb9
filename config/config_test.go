package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/courtsched/models"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Portal.StepTimeout != 30*time.Second {
		t.Errorf("Portal.StepTimeout = %v, want 30s", cfg.Portal.StepTimeout)
	}
	if cfg.Session.ResolveStrategy("") != StrategyLocal {
		t.Errorf("default strategy = %q, want %q", cfg.Session.ResolveStrategy(""), StrategyLocal)
	}
	if cfg.Jobs.MaxCases != 100 {
		t.Errorf("Jobs.MaxCases = %d, want 100", cfg.Jobs.MaxCases)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("COURTSCHED_CDP_URL", "http://127.0.0.1:9223")
	t.Setenv("COURTSCHED_NOTIFY_READ_TIMEOUT", "5s")
	t.Setenv("COURTSCHED_API_KEYS", "a, b ,,c")
	t.Setenv("COURTSCHED_HUMANIZE", "false")

	cfg := Load()

	if got := cfg.Session.ResolveStrategy(""); got != StrategyCDP {
		t.Errorf("strategy = %q, want %q", got, StrategyCDP)
	}
	if cfg.Notify.ReadTimeout != 5*time.Second {
		t.Errorf("Notify.ReadTimeout = %v, want 5s", cfg.Notify.ReadTimeout)
	}
	if len(cfg.Auth.APIKeys) != 3 {
		t.Errorf("APIKeys = %v, want 3 entries", cfg.Auth.APIKeys)
	}
	if cfg.Portal.Humanize {
		t.Error("Humanize should be false")
	}
}

func TestResolveStrategy(t *testing.T) {
	tests := []struct {
		name   string
		cfg    SessionConfig
		jobURL string
		want   string
	}{
		{"default", SessionConfig{}, "", StrategyLocal},
		{"env cdp url", SessionConfig{CDPURL: "http://h:9222"}, "", StrategyCDP},
		{"explicit browserbase", SessionConfig{Strategy: StrategyBrowserbase, CDPURL: "http://h:9222"}, "", StrategyBrowserbase},
		{"job url wins", SessionConfig{Strategy: StrategyBrowserbase}, "http://h:9222", StrategyCDP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ResolveStrategy(tt.jobURL); got != tt.want {
				t.Errorf("ResolveStrategy() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SessionConfig
		wantErr bool
	}{
		{"local", SessionConfig{}, false},
		{"cdp", SessionConfig{CDPURL: "http://h:9222"}, false},
		{"cdp without url", SessionConfig{Strategy: StrategyCDP}, true},
		{"browserbase missing key", SessionConfig{Strategy: StrategyBrowserbase, Browserbase: BrowserbaseConfig{ProjectID: "p"}}, true},
		{"browserbase ok", SessionConfig{Strategy: StrategyBrowserbase, Browserbase: BrowserbaseConfig{ProjectID: "p", APIKey: "k"}}, false},
		{"unknown", SessionConfig{Strategy: "carrier-pigeon"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && models.CodeOf(err) != models.ErrCodeConfiguration {
				t.Errorf("code = %q, want %q", models.CodeOf(err), models.ErrCodeConfiguration)
			}
		})
	}
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf).Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}

	LogConfig{Level: "debug", Format: "text"}.NewLogger(&buf).Debug("shown", "job_id", "j1")
	if out := buf.String(); !strings.Contains(out, "msg=shown") || !strings.Contains(out, "job_id=j1") {
		t.Errorf("text output = %q", out)
	}
}
