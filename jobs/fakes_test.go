package jobs

import (
	"context"
	"sync"

	"github.com/use-agent/courtsched/config"
	"github.com/use-agent/courtsched/models"
	"github.com/use-agent/courtsched/scraper"
)

type fakeSession struct {
	mu           sync.Mutex
	owns         bool
	pageClosed   int
	browserClose int
	detached     int
}

func (s *fakeSession) Page() scraper.Page  { return nil }
func (s *fakeSession) OwnsLifecycle() bool { return s.owns }

func (s *fakeSession) ClosePage() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageClosed++
	return nil
}

func (s *fakeSession) CloseBrowser() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.browserClose++
	return nil
}

func (s *fakeSession) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached++
	return nil
}

type fakeProvider struct {
	mu       sync.Mutex
	session  *fakeSession
	err      error
	acquired int
	cdpURLs  []string
}

func (p *fakeProvider) Acquire(_ context.Context, cdpURL string) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquired++
	p.cdpURLs = append(p.cdpURLs, cdpURL)
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

// fakeScraper returns rows keyed by rol and fails the rols listed in failOn.
type fakeScraper struct {
	mu      sync.Mutex
	openErr error
	rows    map[string][]models.ScheduleRow
	failOn  map[string]error
	panicOn string
	ran     []string
}

func (f *fakeScraper) Open(context.Context, scraper.Page) error { return f.openErr }

func (f *fakeScraper) Run(_ context.Context, _ scraper.Page, q models.CaseQuery) ([]models.ScheduleRow, error) {
	f.mu.Lock()
	f.ran = append(f.ran, q.Rol)
	f.mu.Unlock()

	if q.Rol == f.panicOn {
		panic("portal exploded")
	}
	if err := f.failOn[q.Rol]; err != nil {
		return nil, err
	}
	return f.rows[q.Rol], nil
}

type fakeDiagnostics struct {
	mu     sync.Mutex
	labels []string
}

func (d *fakeDiagnostics) Capture(_ context.Context, _ scraper.Page, label string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.labels = append(d.labels, label)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*models.Notification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, msg *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type harness struct {
	provider *fakeProvider
	session  *fakeSession
	scraper  *fakeScraper
	diag     *fakeDiagnostics
	notifier *fakeNotifier
	orch     *Orchestrator
}

func newHarness(ownsBrowser bool) *harness {
	h := &harness{
		session:  &fakeSession{owns: ownsBrowser},
		scraper:  &fakeScraper{rows: map[string][]models.ScheduleRow{}, failOn: map[string]error{}},
		diag:     &fakeDiagnostics{},
		notifier: &fakeNotifier{},
	}
	h.provider = &fakeProvider{session: h.session}
	registry := NewRegistry(0, 0)
	h.orch = NewOrchestrator(h.provider, h.scraper, h.diag, h.notifier, registry, config.JobsConfig{MaxCases: 10})
	return h
}

// withHeaders prepends the two header rows the portal table always has.
func withHeaders(rows ...models.ScheduleRow) []models.ScheduleRow {
	return append([]models.ScheduleRow{{}, {"filtro"}}, rows...)
}
