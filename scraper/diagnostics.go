package scraper

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// captureTimeout bounds the whole capture so a hung page cannot stall the
// failure path.
const captureTimeout = 15 * time.Second

var unsafeLabel = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Diagnostics writes failure artifacts for a page: a full-page screenshot,
// the serialised DOM and the current URL, all sharing a timestamped base
// name under dir.
type Diagnostics struct {
	dir string
	now func() time.Time
}

// NewDiagnostics returns a Diagnostics writing under dir.
func NewDiagnostics(dir string) *Diagnostics {
	if dir == "" {
		dir = "artifacts"
	}
	return &Diagnostics{dir: dir, now: time.Now}
}

// Capture is best-effort: it never returns an error and never panics, so
// the failure that triggered it stays the one reported. Each artifact is
// attempted independently.
func (d *Diagnostics) Capture(ctx context.Context, p Page, label string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("diagnostics capture panicked", "label", label, "panic", r)
		}
	}()
	if p == nil {
		return
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		slog.Warn("diagnostics: cannot create artifacts dir", "dir", d.dir, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	base := filepath.Join(d.dir, d.now().Format("20060102-150405")+"_"+unsafeLabel.ReplaceAllString(label, "_"))

	if png, err := p.Screenshot(ctx); err != nil {
		slog.Debug("diagnostics: screenshot failed", "label", label, "error", err)
	} else {
		d.write(base+".png", png)
	}

	if dom, err := p.HTML(ctx); err != nil {
		slog.Debug("diagnostics: dom dump failed", "label", label, "error", err)
	} else {
		d.write(base+".html", []byte(dom))
	}

	if u, err := p.URL(ctx); err != nil {
		slog.Debug("diagnostics: url lookup failed", "label", label, "error", err)
	} else {
		d.write(base+".url.txt", []byte(u))
	}

	slog.Info("diagnostics captured", "base", base)
}

func (d *Diagnostics) write(path string, data []byte) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Warn("diagnostics: write failed", "path", path, "error", err)
	}
}
