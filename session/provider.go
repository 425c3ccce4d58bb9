// Package session obtains a browser page for a job, launching a local
// browser, attaching to a remote one over CDP, or renting one from
// Browserbase.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/courtsched/config"
	"github.com/use-agent/courtsched/metrics"
	"github.com/use-agent/courtsched/models"
	"github.com/use-agent/courtsched/scraper"
)

// The portal is Chilean; pages present as a local visitor.
const (
	portalLocale   = "es-CL"
	portalTimezone = "America/Santiago"
	acceptLanguage = "es-CL,es;q=0.9,en;q=0.5"
)

// Provider hands out one browser session per job. It is safe for concurrent
// use; sessions are never shared.
type Provider struct {
	cfg config.SessionConfig
	bb  *browserbaseClient
}

// NewProvider returns a provider for cfg.
func NewProvider(cfg config.SessionConfig) *Provider {
	return &Provider{cfg: cfg, bb: newBrowserbaseClient(cfg.Browserbase)}
}

// Strategy returns the strategy a job with the given CDP URL would use.
func (p *Provider) Strategy(jobCDPURL string) string {
	return p.cfg.ResolveStrategy(jobCDPURL)
}

// Acquire opens a session. A non-empty cdpURL forces the cdp strategy
// against that endpoint. Failures are *models.Error with code
// ErrCodeSession, or ErrCodeConfiguration when settings are missing.
func (p *Provider) Acquire(ctx context.Context, cdpURL string) (*Handle, error) {
	strategy := p.cfg.ResolveStrategy(cdpURL)
	slog.Debug("acquiring browser session", "strategy", strategy)

	h, err := p.acquire(ctx, strategy, cdpURL)
	metrics.SessionAcquired(strategy, err == nil)
	return h, err
}

func (p *Provider) acquire(ctx context.Context, strategy, cdpURL string) (*Handle, error) {
	switch strategy {
	case config.StrategyLocal:
		return p.launchLocal(ctx)
	case config.StrategyCDP:
		if cdpURL == "" {
			cdpURL = p.cfg.CDPURL
		}
		if NormalizeCDPURL(cdpURL) == "" {
			return nil, models.NewError(models.ErrCodeConfiguration, "cdp strategy requires a CDP URL", nil)
		}
		return p.attach(ctx, config.StrategyCDP, NormalizeCDPURL(cdpURL))
	case config.StrategyBrowserbase:
		if err := p.cfg.Browserbase.Validate(); err != nil {
			return nil, err
		}
		s, err := p.bb.createSession(ctx)
		if err != nil {
			return nil, models.NewError(models.ErrCodeSession, "failed to create remote browser session", err)
		}
		slog.Info("browserbase session created", "session_id", s.ID)
		return p.attach(ctx, config.StrategyBrowserbase, s.ConnectURL)
	default:
		return nil, models.NewError(models.ErrCodeConfiguration, fmt.Sprintf("unknown session strategy %q", strategy), nil)
	}
}

// NormalizeCDPURL trims whitespace and any trailing "/" or "/." segments.
func NormalizeCDPURL(u string) string {
	u = strings.TrimSpace(u)
	for {
		switch {
		case strings.HasSuffix(u, "/."):
			u = strings.TrimSuffix(u, "/.")
		case strings.HasSuffix(u, "/"):
			u = strings.TrimSuffix(u, "/")
		default:
			return u
		}
	}
}

// launchLocal starts a private browser process for the job.
func (p *Provider) launchLocal(ctx context.Context) (*Handle, error) {
	l := p.newLauncher(ctx)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewError(models.ErrCodeSession, "failed to launch browser", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	h, err := p.connect(ctx, config.StrategyLocal, controlURL)
	if err != nil {
		l.Kill()
		l.Cleanup()
		return nil, err
	}
	h.launcher = l
	h.owns = true

	if err := p.openPage(h, true); err != nil {
		_ = h.CloseBrowser()
		return nil, err
	}
	return h, nil
}

func (p *Provider) newLauncher(ctx context.Context) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		Headless(p.cfg.Headless).
		NoSandbox(p.cfg.NoSandbox)

	if p.cfg.BrowserBin != "" {
		l = l.Bin(p.cfg.BrowserBin)
	}
	if p.cfg.Proxy != "" {
		l = l.Proxy(p.cfg.Proxy)
	}

	l.Set(flags.Flag("lang"), portalLocale)
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	return l
}

// attach connects to a browser this process does not own. A browser that
// already shows pages is a user's live profile: the job works in its
// default context. Otherwise it gets a fresh incognito context.
func (p *Provider) attach(ctx context.Context, strategy, endpoint string) (*Handle, error) {
	h, err := p.connect(ctx, strategy, endpoint)
	if err != nil {
		return nil, err
	}

	pages, err := h.browser.Pages()
	if err != nil {
		_ = h.Detach()
		return nil, models.NewError(models.ErrCodeSession, "failed to list remote pages", err)
	}

	if err := p.openPage(h, len(pages) == 0); err != nil {
		_ = h.Detach()
		return nil, err
	}
	return h, nil
}

// connect dials the DevTools websocket. http(s) endpoints are resolved to
// their websocket URL first.
func (p *Provider) connect(ctx context.Context, strategy, endpoint string) (*Handle, error) {
	wsURL := endpoint
	if !strings.HasPrefix(endpoint, "ws://") && !strings.HasPrefix(endpoint, "wss://") {
		resolved, err := launcher.ResolveURL(endpoint)
		if err != nil {
			return nil, models.NewError(models.ErrCodeSession, "failed to resolve CDP endpoint "+endpoint, err)
		}
		wsURL = resolved
	}

	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, wsURL, nil); err != nil {
		return nil, models.NewError(models.ErrCodeSession, "failed to connect to CDP endpoint", err)
	}

	browser := rod.New().Client(cdp.New().Start(ws))
	if p.cfg.SlowMotion > 0 {
		browser = browser.SlowMotion(p.cfg.SlowMotion)
	}
	if err := browser.Connect(); err != nil {
		_ = ws.Close()
		return nil, models.NewError(models.ErrCodeSession, "failed to initialise CDP session", err)
	}
	return &Handle{strategy: strategy, browser: browser, ws: ws}, nil
}

// openPage creates the job's page, in a new incognito context when
// isolated is set.
func (p *Provider) openPage(h *Handle, isolated bool) error {
	target := h.browser
	if isolated {
		incognito, err := h.browser.Incognito()
		if err != nil {
			return models.NewError(models.ErrCodeSession, "failed to create browser context", err)
		}
		h.incognito = incognito
		target = incognito
	}

	page, err := target.Page(proto.TargetCreateTarget{})
	if err != nil {
		return models.NewError(models.ErrCodeSession, "failed to open page", err)
	}

	if isolated {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
		if err := (proto.EmulationSetLocaleOverride{Locale: portalLocale}).Call(page); err != nil {
			slog.Warn("locale override failed", "error", err)
		}
		if err := (proto.EmulationSetTimezoneOverride{TimezoneID: portalTimezone}).Call(page); err != nil {
			slog.Warn("timezone override failed", "error", err)
		}
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{"Accept-Language": gson.New(acceptLanguage)},
	}.Call(page)

	h.router = newBlocklist(p.cfg.BlockedResourceTypes, p.cfg.BlockTrackers).install(page)
	h.page = page
	return nil
}

// Handle is one job's browser session.
type Handle struct {
	strategy  string
	browser   *rod.Browser
	incognito *rod.Browser
	page      *rod.Page
	router    *rod.HijackRouter
	ws        *cdp.WebSocket
	launcher  *launcher.Launcher
	owns      bool
}

// Page returns the job's page.
func (h *Handle) Page() scraper.Page { return scraper.NewRodPage(h.page) }

// Strategy reports how the session was obtained.
func (h *Handle) Strategy() string { return h.strategy }

// OwnsLifecycle reports whether this process started the browser and must
// terminate it.
func (h *Handle) OwnsLifecycle() bool { return h.owns }

// ClosePage stops request interception and closes the job's page.
func (h *Handle) ClosePage() error {
	if h.router != nil {
		_ = h.router.Stop()
		h.router = nil
	}
	if h.page == nil {
		return nil
	}
	err := h.page.Close()
	h.page = nil
	return err
}

// CloseBrowser terminates a browser this process launched. It refuses to
// touch a browser it does not own.
func (h *Handle) CloseBrowser() error {
	if !h.owns {
		return fmt.Errorf("session: refusing to close a %s browser not owned by this process", h.strategy)
	}
	err := h.browser.Close()
	if h.launcher != nil {
		h.launcher.Kill()
		h.launcher.Cleanup()
	}
	return err
}

// Detach drops the CDP connection without closing the browser. An incognito
// context created for the job is disposed first; the user's own contexts
// and pages are left alone.
func (h *Handle) Detach() error {
	if h.incognito != nil {
		if err := h.incognito.Close(); err != nil {
			slog.Debug("dispose browser context failed", "error", err)
		}
		h.incognito = nil
	}
	return h.ws.Close()
}
