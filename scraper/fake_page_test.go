package scraper

import (
	"context"
	"errors"
	"sync"
)

// fakePage records every interaction as "<op> <selector>[=<value>]".
type fakePage struct {
	mu        sync.Mutex
	calls     []string
	moves     int
	tableHTML string

	failOn  map[string]error // keyed by "<op> <selector>"
	blockOn map[string]bool  // waits for ctx to expire
	closed  bool
	panicky bool
}

var errPageClosed = errors.New("page closed")

func (f *fakePage) record(ctx context.Context, op, selector, value string) error {
	if f.panicky {
		panic("boom")
	}
	f.mu.Lock()
	call := op + " " + selector
	if value != "" {
		call += "=" + value
	}
	f.calls = append(f.calls, call)
	closed := f.closed
	f.mu.Unlock()

	if closed {
		return errPageClosed
	}
	key := op + " " + selector
	if f.blockOn[key] {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := f.failOn[key]; err != nil {
		return err
	}
	return nil
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	return f.record(ctx, "navigate", url, "")
}

func (f *fakePage) WaitInteractable(ctx context.Context, selector string) error {
	return f.record(ctx, "wait", selector, "")
}

func (f *fakePage) SelectOption(ctx context.Context, selector, value string) error {
	return f.record(ctx, "select", selector, value)
}

func (f *fakePage) Fill(ctx context.Context, selector, value string) error {
	return f.record(ctx, "fill", selector, value)
}

func (f *fakePage) Click(ctx context.Context, selector string) error {
	return f.record(ctx, "click", selector, "")
}

func (f *fakePage) OuterHTML(ctx context.Context, selector string) (string, error) {
	if err := f.record(ctx, "html", selector, ""); err != nil {
		return "", err
	}
	return f.tableHTML, nil
}

func (f *fakePage) MoveMouse(_ context.Context, _, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves++
	return nil
}

func (f *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	if err := f.record(ctx, "screenshot", "", ""); err != nil {
		return nil, err
	}
	return []byte("\x89PNG"), nil
}

func (f *fakePage) HTML(ctx context.Context) (string, error) {
	if err := f.record(ctx, "dom", "", ""); err != nil {
		return "", err
	}
	return "<html><body>portal</body></html>", nil
}

func (f *fakePage) URL(ctx context.Context) (string, error) {
	if err := f.record(ctx, "url", "", ""); err != nil {
		return "", err
	}
	return "https://portal.example/home", nil
}
