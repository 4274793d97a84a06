// Package pages models the storefront screens a smoke scenario walks
// through. Every element is reached through a locator chain so that markup
// drift degrades to a fallback selector instead of a failed run.
package pages

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/browser"
	"github.com/adyen/storesmoke/internal/diagnostics"
	"github.com/adyen/storesmoke/internal/locator"
)

const (
	DefaultNavigationTimeout = 15 * time.Second
	DefaultProbeTimeout      = 500 * time.Millisecond
)

// Page is the capability every page representation shares.
type Page interface {
	Name() string
	Goto(ctx context.Context) error
	VerifyLoaded(ctx context.Context) error
	WaitReady(ctx context.Context) error
	Screenshot(ctx context.Context, name string) (string, error)
}

// Options configures the pages of one session. Zero durations select the
// defaults.
type Options struct {
	BaseURL string
	// Timeout bounds element resolution and actions.
	Timeout           time.Duration
	NavigationTimeout time.Duration
	// ProbeTimeout bounds existence checks.
	ProbeTimeout time.Duration
	// ReadyTimeout bounds the add-to-cart readiness gate.
	ReadyTimeout time.Duration
	Recorder     *diagnostics.Recorder
	Logger       *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = locator.DefaultTimeout
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = DefaultNavigationTimeout
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = DefaultProbeTimeout
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = o.Timeout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Base holds the primitives shared by all pages.
type Base struct {
	name    string
	session browser.Session
	opts    Options
	locator *locator.Strategy
	logger  *zap.Logger
}

func newBase(name string, session browser.Session, opts Options) *Base {
	opts = opts.withDefaults()
	logger := opts.Logger.With(zap.String("page", name))
	return &Base{
		name:    name,
		session: session,
		opts:    opts,
		locator: locator.NewStrategy(session,
			locator.WithTimeout(opts.Timeout),
			locator.WithLogger(logger)),
		logger: logger,
	}
}

func (b *Base) Name() string { return b.name }

func (b *Base) Session() browser.Session { return b.session }

// URL returns the session's current location.
func (b *Base) URL() string { return b.session.URL() }

// Navigate loads path relative to the base URL and waits for
// DOMContentLoaded. An HTTP error status fails with ErrRouteUnavailable.
func (b *Base) Navigate(ctx context.Context, path string) error {
	target := strings.TrimRight(b.opts.BaseURL, "/") + path
	b.logger.Debug("navigating", zap.String("url", target))

	status, err := b.session.Goto(ctx, target, b.opts.NavigationTimeout)
	if err != nil {
		return &VerificationError{Page: b.name, Check: "navigate", Detail: target, Err: err}
	}
	if status >= 400 {
		return &VerificationError{
			Page:   b.name,
			Check:  "navigate",
			Detail: fmt.Sprintf("%s returned HTTP %d", path, status),
			Err:    ErrRouteUnavailable,
		}
	}
	return b.WaitReady(ctx)
}

func (b *Base) WaitReady(ctx context.Context) error {
	if err := b.session.WaitReady(ctx, b.opts.NavigationTimeout); err != nil {
		return &VerificationError{Page: b.name, Check: "wait ready", Detail: b.session.URL(), Err: err}
	}
	return nil
}

// SafeClick waits for chain to be visible and clicks it. Absence and click
// timeouts are hard failures.
func (b *Base) SafeClick(ctx context.Context, chain locator.Chain) error {
	m, ok := b.locator.ResolveVisible(ctx, chain, b.opts.Timeout)
	if !ok {
		return &VerificationError{Page: b.name, Check: "click " + chain.Name(), Detail: "no candidate visible", Err: ErrElementNotFound}
	}
	if err := m.Query.Click(ctx, browser.ClickOptions{Timeout: b.opts.Timeout}); err != nil {
		return &VerificationError{Page: b.name, Check: "click " + chain.Name(), Detail: m.Selector, Err: err}
	}
	return nil
}

// SafeFill waits for chain and sets its value.
func (b *Base) SafeFill(ctx context.Context, chain locator.Chain, value string) error {
	m, ok := b.locator.ResolveVisible(ctx, chain, b.opts.Timeout)
	if !ok {
		return &VerificationError{Page: b.name, Check: "fill " + chain.Name(), Detail: "no candidate visible", Err: ErrElementNotFound}
	}
	if err := m.Query.Fill(ctx, value, b.opts.Timeout); err != nil {
		return &VerificationError{Page: b.name, Check: "fill " + chain.Name(), Detail: m.Selector, Err: err}
	}
	return nil
}

// Exists probes for chain with the short probe timeout. It never fails.
func (b *Base) Exists(ctx context.Context, chain locator.Chain) bool {
	_, ok := b.locator.ResolveWithin(ctx, chain, b.opts.ProbeTimeout)
	return ok
}

// present waits up to the action timeout for any candidate of chains. It
// backs the load checks, where absence is a hard failure.
func (b *Base) present(ctx context.Context, chains ...locator.Chain) bool {
	names := make([]string, 0, len(chains))
	var candidates []string
	for _, c := range chains {
		names = append(names, c.Name())
		candidates = append(candidates, c.Candidates()...)
	}
	_, ok := b.locator.ResolveWithin(ctx, locator.New(strings.Join(names, " or "), candidates...), b.opts.Timeout)
	return ok
}

// Visible is Exists for a visible node.
func (b *Base) Visible(ctx context.Context, chain locator.Chain) bool {
	_, ok := b.locator.ResolveVisible(ctx, chain, b.opts.ProbeTimeout)
	return ok
}

// TextOf returns the whitespace-collapsed text of chain's first node, or
// false when nothing matched within the probe timeout.
func (b *Base) TextOf(ctx context.Context, chain locator.Chain) (string, bool) {
	m, ok := b.locator.ResolveWithin(ctx, chain, b.opts.ProbeTimeout)
	if !ok {
		return "", false
	}
	text, err := m.Query.Text(ctx)
	if err != nil {
		b.logger.Debug("failed to read text", zap.String("selector", m.Selector), zap.Error(err))
		return "", false
	}
	return cleanText(text), true
}

// TextsOf returns the text of every node matched by the winning candidate.
func (b *Base) TextsOf(ctx context.Context, chain locator.Chain) ([]string, error) {
	m, ok := b.locator.ResolveWithin(ctx, chain, b.opts.ProbeTimeout)
	if !ok {
		return nil, nil
	}
	texts, err := b.session.Query(m.Selector).AllTexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", chain.Name(), err)
	}
	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = cleanText(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return cleaned, nil
}

// Screenshot captures the full page as {name}-{timestamp}.
func (b *Base) Screenshot(ctx context.Context, name string) (string, error) {
	if b.opts.Recorder == nil {
		return "", ErrNoRecorder
	}
	return b.opts.Recorder.Screenshot(ctx, b.session, name)
}

// VerifyURL matches the current location against pattern.
func (b *Base) VerifyURL(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid url pattern %q: %w", pattern, err)
	}
	current := b.session.URL()
	if !re.MatchString(current) {
		return &VerificationError{
			Page:   b.name,
			Check:  "url",
			Detail: fmt.Sprintf("%s does not match %s", current, pattern),
		}
	}
	return nil
}

// routePattern matches path below the base URL, followed by a query,
// fragment or the end of the URL.
func (b *Base) routePattern(path string) string {
	prefix := strings.TrimRight(b.opts.BaseURL, "/")
	if u, err := url.Parse(b.opts.BaseURL); err == nil && u.Host != "" {
		prefix = u.Host + strings.TrimRight(u.Path, "/")
	}
	return `^https?://` + regexp.QuoteMeta(prefix) + path + `([?#]|$)`
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
