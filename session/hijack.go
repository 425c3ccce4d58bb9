package session

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps COURTSCHED_BLOCKED_RESOURCES names to CDP resource
// types. Names are matched case-insensitively. Script and XHR are absent on
// purpose: the search form is populated by both.
var resourceTypes = map[string]proto.NetworkResourceType{
	"image":      proto.NetworkResourceTypeImage,
	"stylesheet": proto.NetworkResourceTypeStylesheet,
	"font":       proto.NetworkResourceTypeFont,
	"media":      proto.NetworkResourceTypeMedia,
}

// trackerHosts are analytics and ad hosts dropped when BlockTrackers is on.
var trackerHosts = map[string]struct{}{
	"google-analytics.com":   {},
	"googletagmanager.com":   {},
	"googletagservices.com":  {},
	"doubleclick.net":        {},
	"googlesyndication.com":  {},
	"googleadservices.com":   {},
	"facebook.net":           {},
	"connect.facebook.net":   {},
	"hotjar.com":             {},
	"clarity.ms":             {},
	"scorecardresearch.com":  {},
	"addthis.com":            {},
	"sharethis.com":          {},
	"analytics.twitter.com":  {},
	"static.ads-twitter.com": {},
}

// blocklist decides which requests a page never sends.
type blocklist struct {
	types    map[proto.NetworkResourceType]struct{}
	trackers bool
}

func newBlocklist(names []string, trackers bool) blocklist {
	b := blocklist{types: make(map[proto.NetworkResourceType]struct{}, len(names)), trackers: trackers}
	for _, n := range names {
		if rt, ok := resourceTypes[strings.ToLower(strings.TrimSpace(n))]; ok {
			b.types[rt] = struct{}{}
		} else {
			slog.Warn("ignoring unknown blocked resource type", "type", n)
		}
	}
	return b
}

func (b blocklist) empty() bool {
	return len(b.types) == 0 && !b.trackers
}

func (b blocklist) blocks(rt proto.NetworkResourceType, rawURL string) bool {
	if _, ok := b.types[rt]; ok {
		return true
	}
	if !b.trackers {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return isTrackerHost(u.Hostname())
}

// isTrackerHost matches host or any of its parent domains.
func isTrackerHost(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := trackerHosts[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			break
		}
		host = host[i+1:]
	}
	return false
}

// install intercepts every request on page and fails the blocked ones.
// It returns nil when nothing is blocked; otherwise the caller stops the
// router when the page is closed.
func (b blocklist) install(page *rod.Page) *rod.HijackRouter {
	if b.empty() {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if b.blocks(h.Request.Type(), h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop.
	go router.Run()
	return router
}
