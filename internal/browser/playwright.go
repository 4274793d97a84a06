package browser

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/multierr"
)

// PlaywrightLauncher drives chromium, firefox or webkit through Playwright.
type PlaywrightLauncher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    LaunchOptions
}

// Install downloads the Playwright driver and the requested browsers.
// Names that are not Playwright browsers are ignored.
func Install(browsers []string) error {
	wanted := slices.DeleteFunc(slices.Clone(browsers), func(name string) bool {
		return name != "chromium" && name != "firefox" && name != "webkit"
	})
	if len(wanted) == 0 {
		wanted = []string{"chromium"}
	}
	if err := playwright.Install(&playwright.RunOptions{Browsers: wanted}); err != nil {
		return fmt.Errorf("failed to install playwright browsers %v: %w", wanted, err)
	}
	return nil
}

// NewPlaywrightLauncher starts Playwright and launches opts.Browser
// (chromium when empty).
func NewPlaywrightLauncher(opts LaunchOptions) (*PlaywrightLauncher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var browserType playwright.BrowserType
	switch opts.Browser {
	case "", "chromium":
		browserType = pw.Chromium
	case "firefox":
		browserType = pw.Firefox
	case "webkit":
		browserType = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Browser)
	}

	b, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch %s: %w", browserType.Name(), err)
	}

	return &PlaywrightLauncher{pw: pw, browser: b, opts: opts}, nil
}

// NewSession opens a fresh browser context with a single page.
func (l *PlaywrightLauncher) NewSession(ctx context.Context) (Session, error) {
	contextOpts := playwright.BrowserNewContextOptions{}
	if l.opts.Width > 0 && l.opts.Height > 0 {
		contextOpts.Viewport = &playwright.Size{Width: l.opts.Width, Height: l.opts.Height}
	}
	bc, err := l.browser.NewContext(contextOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	page, err := bc.NewPage()
	if err != nil {
		_ = bc.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	s := &playwrightSession{context: bc, page: page}
	page.OnConsole(func(msg playwright.ConsoleMessage) {
		s.record(ConsoleMessage{Type: msg.Type(), Text: msg.Text(), Time: time.Now()})
	})
	page.OnPageError(func(err error) {
		s.record(ConsoleMessage{Type: "pageerror", Text: err.Error(), Time: time.Now()})
	})
	return s, nil
}

func (l *PlaywrightLauncher) Close() error {
	var err error
	if closeErr := l.browser.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("failed to close browser: %w", closeErr))
	}
	if stopErr := l.pw.Stop(); stopErr != nil {
		err = multierr.Append(err, fmt.Errorf("failed to stop playwright: %w", stopErr))
	}
	return err
}

type playwrightSession struct {
	context playwright.BrowserContext
	page    playwright.Page

	mu      sync.Mutex
	console []ConsoleMessage
}

func (s *playwrightSession) record(msg ConsoleMessage) {
	s.mu.Lock()
	s.console = append(s.console, msg)
	s.mu.Unlock()
}

func (s *playwrightSession) Goto(ctx context.Context, url string, timeout time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	resp, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(timeout),
	})
	if err != nil {
		return 0, playwrightError("navigate", url, timeout, err)
	}
	if resp == nil {
		return 0, nil
	}
	return resp.Status(), nil
}

func (s *playwrightSession) WaitReady(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: millis(timeout),
	})
	if err != nil {
		return playwrightError("wait for load state", s.page.URL(), timeout, err)
	}
	return nil
}

func (s *playwrightSession) URL() string {
	return s.page.URL()
}

func (s *playwrightSession) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Title()
}

func (s *playwrightSession) Query(selector string) Query {
	return &playwrightQuery{raw: selector, locator: s.page.Locator(selector)}
}

func (s *playwrightSession) Capture(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return Capture{}, err
	}
	data, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return Capture{}, fmt.Errorf("failed to take screenshot: %w", err)
	}
	return Capture{Data: data, Ext: "png"}, nil
}

func (s *playwrightSession) Console() []ConsoleMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.console)
}

func (s *playwrightSession) Close() error {
	return s.context.Close()
}

type playwrightQuery struct {
	raw     string
	locator playwright.Locator
}

func (q *playwrightQuery) Selector() string { return q.raw }

func (q *playwrightQuery) First() Query {
	return &playwrightQuery{raw: q.raw, locator: q.locator.First()}
}

func (q *playwrightQuery) Nth(index int) Query {
	return &playwrightQuery{raw: q.raw, locator: q.locator.Nth(index)}
}

func (q *playwrightQuery) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return q.locator.Count()
}

func (q *playwrightQuery) IsVisible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return q.locator.First().IsVisible()
}

func (q *playwrightQuery) IsEnabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	enabled, err := q.locator.First().IsEnabled(playwright.LocatorIsEnabledOptions{
		Timeout: millis(time.Second),
	})
	if err != nil {
		return false, playwrightError("is enabled", q.raw, time.Second, err)
	}
	return enabled, nil
}

func (q *playwrightQuery) Click(ctx context.Context, opts ClickOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := q.locator.First().Click(playwright.LocatorClickOptions{
		Force:   playwright.Bool(opts.Force),
		Timeout: millis(opts.Timeout),
	})
	if err != nil {
		return playwrightError("click", q.raw, opts.Timeout, err)
	}
	return nil
}

func (q *playwrightQuery) Fill(ctx context.Context, value string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := q.locator.First().Fill(value, playwright.LocatorFillOptions{Timeout: millis(timeout)}); err != nil {
		return playwrightError("fill", q.raw, timeout, err)
	}
	return nil
}

// optionValueScript returns the value of the option whose value or label
// equals the argument, or null.
const optionValueScript = `(el, wanted) => {
	const norm = t => (t || '').replace(/\s+/g, ' ').trim().toLowerCase();
	for (const o of Array.from(el.options || [])) {
		if (o.value === wanted || norm(o.label) === norm(wanted)) return o.value;
	}
	return null;
}`

func (q *playwrightQuery) SelectOption(ctx context.Context, value string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	first := q.locator.First()
	res, err := first.Evaluate(optionValueScript, value, playwright.LocatorEvaluateOptions{Timeout: millis(timeout)})
	if err != nil {
		return playwrightError("select option", q.raw, timeout, err)
	}
	optionValue, ok := res.(string)
	if !ok {
		return fmt.Errorf("select option %q: no option %q: %w", q.raw, value, ErrNoMatch)
	}
	_, err = first.SelectOption(playwright.SelectOptionValues{Values: &[]string{optionValue}},
		playwright.LocatorSelectOptionOptions{Timeout: millis(timeout)})
	if err != nil {
		return playwrightError("select option", q.raw, timeout, err)
	}
	return nil
}

func (q *playwrightQuery) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := q.locator.First().TextContent(playwright.LocatorTextContentOptions{Timeout: millis(time.Second)})
	if err != nil {
		return "", playwrightError("text content", q.raw, time.Second, err)
	}
	return text, nil
}

func (q *playwrightQuery) AllTexts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return q.locator.AllTextContents()
}

func (q *playwrightQuery) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	res, err := q.locator.First().Evaluate(`(el, name) => el.getAttribute(name)`, name,
		playwright.LocatorEvaluateOptions{Timeout: millis(time.Second)})
	if err != nil {
		return "", false, playwrightError("attribute", q.raw, time.Second, err)
	}
	value, ok := res.(string)
	return value, ok, nil
}

func millis(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	return playwright.Float(float64(d.Milliseconds()))
}

func playwrightError(op, target string, timeout time.Duration, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return timeoutError(op, target, timeout)
	}
	return fmt.Errorf("%s %q: %w", op, target, err)
}
