package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const cdpPollInterval = 100 * time.Millisecond

// CDPLauncher drives a local Chrome through the DevTools protocol. Each
// session runs in its own browser context so cookies are not shared.
type CDPLauncher struct {
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
}

// NewCDPLauncher starts Chrome (opts.ExecPath when set) and waits for the
// first target to attach.
func NewCDPLauncher(ctx context.Context, opts LaunchOptions) (*CDPLauncher, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.Width > 0 && opts.Height > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.Width, opts.Height))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}
	return &CDPLauncher{browserCtx: browserCtx, cancelAlloc: cancelAlloc}, nil
}

func (l *CDPLauncher) NewSession(ctx context.Context) (Session, error) {
	tab, cancel := chromedp.NewContext(l.browserCtx, chromedp.WithNewBrowserContext())
	s := &cdpSession{tab: tab, cancel: cancel}
	chromedp.ListenTarget(tab, func(ev interface{}) {
		switch ev := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			args := make([]string, 0, len(ev.Args))
			for _, arg := range ev.Args {
				args = append(args, remoteObjectText(arg))
			}
			s.record(ConsoleMessage{Type: string(ev.Type), Text: strings.Join(args, " "), Time: time.Now()})
		case *runtime.EventExceptionThrown:
			if ev.ExceptionDetails == nil {
				return
			}
			text := ev.ExceptionDetails.Text
			if ev.ExceptionDetails.Exception != nil && ev.ExceptionDetails.Exception.Description != "" {
				text = ev.ExceptionDetails.Exception.Description
			}
			s.record(ConsoleMessage{Type: "pageerror", Text: text, Time: time.Now()})
		}
	})
	if err := chromedp.Run(tab); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	return s, nil
}

func (l *CDPLauncher) Close() error {
	err := chromedp.Cancel(l.browserCtx)
	l.cancelAlloc()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close chrome: %w", err)
	}
	return nil
}

func remoteObjectText(arg *runtime.RemoteObject) string {
	if len(arg.Value) > 0 {
		raw := string(arg.Value)
		if unquoted, err := strconv.Unquote(raw); err == nil {
			return unquoted
		}
		return raw
	}
	return arg.Description
}

type cdpSession struct {
	tab    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	console []ConsoleMessage
}

func (s *cdpSession) record(msg ConsoleMessage) {
	s.mu.Lock()
	s.console = append(s.console, msg)
	s.mu.Unlock()
}

// scope derives a context from the tab that also ends when ctx does.
func (s *cdpSession) scope(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	runCtx, cancel := context.WithTimeout(s.tab, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *cdpSession) run(ctx context.Context, op, target string, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := s.scope(ctx, timeout)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return timeoutError(op, target, timeout)
		}
		return fmt.Errorf("%s %q: %w", op, target, err)
	}
	return nil
}

func (s *cdpSession) Goto(ctx context.Context, url string, timeout time.Duration) (int, error) {
	runCtx, cancel := s.scope(ctx, timeout)
	defer cancel()
	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return 0, timeoutError("navigate", url, timeout)
		}
		return 0, fmt.Errorf("navigate %q: %w", url, err)
	}
	if resp == nil {
		return 0, nil
	}
	return int(resp.Status), nil
}

func (s *cdpSession) WaitReady(ctx context.Context, timeout time.Duration) error {
	return s.run(ctx, "wait ready", "body", timeout, chromedp.WaitReady("body", chromedp.ByQuery))
}

func (s *cdpSession) URL() string {
	var location string
	if err := s.run(context.Background(), "location", "", time.Second, chromedp.Location(&location)); err != nil {
		return "about:blank"
	}
	return location
}

func (s *cdpSession) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, "title", "", 5*time.Second, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return strings.TrimSpace(title), nil
}

func (s *cdpSession) Query(selector string) Query {
	return &cdpQuery{session: s, sel: ParseSelector(selector), index: -1}
}

func (s *cdpSession) Capture(ctx context.Context) (Capture, error) {
	var buf []byte
	if err := s.run(ctx, "screenshot", "", 30*time.Second, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return Capture{}, err
	}
	return Capture{Data: buf, Ext: "png"}, nil
}

func (s *cdpSession) Console() []ConsoleMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.console)
}

func (s *cdpSession) Close() error {
	s.cancel()
	return nil
}

// cdpFindScript resolves the selector dialect in the page. The argument is
// {css, hasText, text, index}.
const cdpFindScript = `(want) => {
	const norm = t => (t || '').replace(/\s+/g, ' ').trim().toLowerCase();
	let els;
	if (want.text) {
		const needle = norm(want.text);
		const all = document.body ? Array.from(document.body.querySelectorAll('*')) : [];
		els = all.filter(e => e.tagName !== 'SCRIPT' && e.tagName !== 'STYLE' &&
			norm(e.textContent).includes(needle) &&
			!Array.from(e.children).some(c => norm(c.textContent).includes(needle)));
	} else {
		els = Array.from(document.querySelectorAll(want.css));
		if (want.hasText) {
			const needle = norm(want.hasText);
			els = els.filter(e => norm(e.textContent).includes(needle));
		}
	}
	if (want.index >= 0) {
		els = want.index < els.length ? [els[want.index]] : [];
	}
	return els;
}`

// cdpStateScript reports the actionability of el.
const cdpStateScript = `
	if (!el) return {found: false, visible: false, enabled: false, tag: ''};
	const style = getComputedStyle(el);
	const visible = style.visibility !== 'hidden' && style.display !== 'none' &&
		!!(el.offsetWidth || el.offsetHeight || el.getClientRects().length);
	const enabled = !el.disabled && el.closest('[aria-disabled="true"]') === null;
	return {found: true, visible: visible, enabled: enabled, tag: el.tagName.toLowerCase()};`

type cdpState struct {
	Found   bool   `json:"found"`
	Visible bool   `json:"visible"`
	Enabled bool   `json:"enabled"`
	Tag     string `json:"tag"`
}

type cdpQuery struct {
	session *cdpSession
	sel     Selector
	index   int
}

func (q *cdpQuery) Selector() string { return q.sel.Raw }

func (q *cdpQuery) First() Query { return q.Nth(0) }

func (q *cdpQuery) Nth(index int) Query {
	if q.index >= 0 {
		if index == 0 {
			return q
		}
		index = math.MaxInt32
	}
	return &cdpQuery{session: q.session, sel: q.sel, index: index}
}

// expr wraps body in a function where els holds the matches and el the
// first of them.
func (q *cdpQuery) expr(body string) (string, error) {
	target, err := json.Marshal(map[string]any{
		"css":     q.sel.CSS,
		"hasText": q.sel.HasText,
		"text":    q.sel.Text,
		"index":   q.index,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(() => { const els = (%s)(%s); const el = els[0]; %s })()", cdpFindScript, target, body), nil
}

func (q *cdpQuery) eval(ctx context.Context, op string, timeout time.Duration, body string, out any) error {
	expr, err := q.expr(body)
	if err != nil {
		return fmt.Errorf("%s %q: %w", op, q.sel.Raw, err)
	}
	return q.session.run(ctx, op, q.sel.Raw, timeout, chromedp.Evaluate(expr, out))
}

func (q *cdpQuery) state(ctx context.Context) (cdpState, error) {
	var st cdpState
	err := q.eval(ctx, "state", 5*time.Second, cdpStateScript, &st)
	return st, err
}

// waitFor polls the first match until ready reports true.
func (q *cdpQuery) waitFor(ctx context.Context, op string, timeout time.Duration, ready func(cdpState) bool) (cdpState, error) {
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	deadline := time.Now().Add(timeout)
	for {
		st, err := q.state(ctx)
		if err != nil {
			return st, err
		}
		if ready(st) {
			return st, nil
		}
		if time.Now().After(deadline) {
			return st, timeoutError(op, q.sel.Raw, timeout)
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-time.After(cdpPollInterval):
		}
	}
}

func (q *cdpQuery) Count(ctx context.Context) (int, error) {
	var n int
	if err := q.eval(ctx, "count", 5*time.Second, "return els.length;", &n); err != nil {
		return 0, err
	}
	return n, nil
}

func (q *cdpQuery) IsVisible(ctx context.Context) (bool, error) {
	st, err := q.state(ctx)
	return st.Visible, err
}

func (q *cdpQuery) IsEnabled(ctx context.Context) (bool, error) {
	st, err := q.state(ctx)
	if err != nil {
		return false, err
	}
	if !st.Found {
		return false, timeoutError("is enabled", q.sel.Raw, 0)
	}
	return st.Enabled, nil
}

func (q *cdpQuery) Click(ctx context.Context, opts ClickOptions) error {
	ready := func(st cdpState) bool { return st.Found && st.Visible && st.Enabled }
	if opts.Force {
		ready = func(st cdpState) bool { return st.Found }
	}
	if _, err := q.waitFor(ctx, "click", opts.Timeout, ready); err != nil {
		return err
	}
	var clicked bool
	if err := q.eval(ctx, "click", opts.Timeout, "el.scrollIntoView({block: 'center'}); el.click(); return true;", &clicked); err != nil {
		return err
	}
	// A click may start a navigation; let the next document settle.
	return q.session.run(ctx, "click", q.sel.Raw, opts.Timeout,
		chromedp.Sleep(cdpPollInterval),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (q *cdpQuery) Fill(ctx context.Context, value string, timeout time.Duration) error {
	st, err := q.waitFor(ctx, "fill", timeout, func(st cdpState) bool { return st.Found && st.Visible && st.Enabled })
	if err != nil {
		return err
	}
	if st.Tag != "input" && st.Tag != "textarea" {
		return fmt.Errorf("fill %q: element is not an input: %w", q.sel.Raw, ErrUnsupported)
	}
	quoted, _ := json.Marshal(value)
	body := fmt.Sprintf(`el.focus(); el.value = %s;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;`, quoted)
	var done bool
	return q.eval(ctx, "fill", timeout, body, &done)
}

func (q *cdpQuery) SelectOption(ctx context.Context, value string, timeout time.Duration) error {
	st, err := q.waitFor(ctx, "select option", timeout, func(st cdpState) bool { return st.Found && st.Enabled })
	if err != nil {
		return err
	}
	if st.Tag != "select" {
		return fmt.Errorf("select option %q: element is not a select: %w", q.sel.Raw, ErrUnsupported)
	}
	quoted, _ := json.Marshal(value)
	body := fmt.Sprintf(`const wanted = %s;
		const norm = t => (t || '').replace(/\s+/g, ' ').trim().toLowerCase();
		const opt = Array.from(el.options).find(o => o.value === wanted || norm(o.label) === norm(wanted));
		if (!opt) return false;
		el.value = opt.value;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;`, quoted)
	var selected bool
	if err := q.eval(ctx, "select option", timeout, body, &selected); err != nil {
		return err
	}
	if !selected {
		return fmt.Errorf("select option %q: no option %q: %w", q.sel.Raw, value, ErrNoMatch)
	}
	return nil
}

type cdpValue struct {
	Found bool   `json:"found"`
	Has   bool   `json:"has"`
	Value string `json:"value"`
}

func (q *cdpQuery) Text(ctx context.Context) (string, error) {
	var v cdpValue
	if err := q.eval(ctx, "text content", 5*time.Second,
		"return el ? {found: true, has: true, value: el.textContent || ''} : {found: false};", &v); err != nil {
		return "", err
	}
	if !v.Found {
		return "", timeoutError("text content", q.sel.Raw, 0)
	}
	return v.Value, nil
}

func (q *cdpQuery) AllTexts(ctx context.Context) ([]string, error) {
	var texts []string
	if err := q.eval(ctx, "all texts", 5*time.Second, "return els.map(e => e.textContent || '');", &texts); err != nil {
		return nil, err
	}
	return texts, nil
}

func (q *cdpQuery) Attribute(ctx context.Context, name string) (string, bool, error) {
	quoted, _ := json.Marshal(name)
	body := fmt.Sprintf(`if (!el) return {found: false};
		const v = el.getAttribute(%s);
		return {found: true, has: v !== null, value: v || ''};`, quoted)
	var v cdpValue
	if err := q.eval(ctx, "attribute", 5*time.Second, body, &v); err != nil {
		return "", false, err
	}
	if !v.Found {
		return "", false, timeoutError("attribute", q.sel.Raw, 0)
	}
	return v.Value, v.Has, nil
}
