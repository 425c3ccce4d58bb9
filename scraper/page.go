package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Page is the slice of browser-page behaviour the lookup flow and the
// diagnostics need. Every element method waits for its target to exist
// before acting; ctx bounds that wait.
type Page interface {
	// Navigate loads url and waits for DOMContentLoaded.
	Navigate(ctx context.Context, url string) error

	// WaitInteractable blocks until the element is attached, visible and
	// not covered by another element.
	WaitInteractable(ctx context.Context, selector string) error

	// SelectOption picks the <option> whose visible text equals value.
	SelectOption(ctx context.Context, selector, value string) error

	// Fill replaces the content of an input.
	Fill(ctx context.Context, selector, value string) error

	Click(ctx context.Context, selector string) error

	// OuterHTML returns the serialised element.
	OuterHTML(ctx context.Context, selector string) (string, error)

	MoveMouse(ctx context.Context, x, y float64) error

	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
}

// RodPage adapts a *rod.Page to Page.
type RodPage struct {
	page *rod.Page
}

// NewRodPage wraps p.
func NewRodPage(p *rod.Page) *RodPage {
	return &RodPage{page: p}
}

// Rod exposes the underlying page to the session layer.
func (r *RodPage) Rod() *rod.Page { return r.page }

func (r *RodPage) Navigate(ctx context.Context, url string) error {
	p := r.page.Context(ctx)
	// The waiter must be armed before Navigate or the event can be missed.
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return err
	}
	wait()
	return ctx.Err()
}

// element resolves selector as XPath when it starts with "/" or "(",
// otherwise as CSS. rod retries the lookup until ctx expires.
func (r *RodPage) element(ctx context.Context, selector string) (*rod.Element, error) {
	p := r.page.Context(ctx)
	if strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(") {
		return p.ElementX(selector)
	}
	return p.Element(selector)
}

func (r *RodPage) interactable(ctx context.Context, selector string) (*rod.Element, error) {
	el, err := r.element(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("element %q not found: %w", selector, err)
	}
	if _, err := el.WaitInteractable(); err != nil {
		return nil, fmt.Errorf("element %q not interactable: %w", selector, err)
	}
	return el, nil
}

func (r *RodPage) WaitInteractable(ctx context.Context, selector string) error {
	_, err := r.interactable(ctx, selector)
	return err
}

func (r *RodPage) SelectOption(ctx context.Context, selector, value string) error {
	el, err := r.interactable(ctx, selector)
	if err != nil {
		return err
	}
	pattern := `^\s*` + regexp.QuoteMeta(value) + `\s*$`
	if err := el.Select([]string{pattern}, true, rod.SelectorTypeRegex); err != nil {
		return fmt.Errorf("select %q in %q: %w", value, selector, err)
	}
	return nil
}

func (r *RodPage) Fill(ctx context.Context, selector, value string) error {
	el, err := r.interactable(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("clear %q: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input into %q: %w", selector, err)
	}
	return nil
}

func (r *RodPage) Click(ctx context.Context, selector string) error {
	el, err := r.interactable(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (r *RodPage) OuterHTML(ctx context.Context, selector string) (string, error) {
	el, err := r.element(ctx, selector)
	if err != nil {
		return "", fmt.Errorf("element %q not found: %w", selector, err)
	}
	return el.HTML()
}

func (r *RodPage) MoveMouse(ctx context.Context, x, y float64) error {
	return r.page.Context(ctx).Mouse.MoveTo(proto.Point{X: x, Y: y})
}

func (r *RodPage) Screenshot(ctx context.Context) ([]byte, error) {
	return r.page.Context(ctx).Screenshot(true, nil)
}

func (r *RodPage) HTML(ctx context.Context) (string, error) {
	return r.page.Context(ctx).HTML()
}

func (r *RodPage) URL(ctx context.Context) (string, error) {
	info, err := r.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}
