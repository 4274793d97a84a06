package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const defaultActionTimeout = 30 * time.Second

// StaticLauncher serves sessions that fetch server-rendered HTML over plain
// HTTP and query it with goquery. No JavaScript runs: links are followed and
// forms are submitted the way a browser would without scripts.
type StaticLauncher struct {
	// Transport overrides http.DefaultTransport when set.
	Transport http.RoundTripper
}

// NewStaticLauncher returns a launcher backed by http.DefaultTransport.
func NewStaticLauncher() *StaticLauncher {
	return &StaticLauncher{}
}

// NewSession creates a session with its own cookie jar.
func (l *StaticLauncher) NewSession(ctx context.Context) (Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	transport := l.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &StaticSession{
		client: &http.Client{Jar: jar, Transport: transport},
	}, nil
}

// Close is a no-op; static sessions hold no browser process.
func (l *StaticLauncher) Close() error {
	return nil
}

// StaticSession is a Session over a parsed HTML document.
type StaticSession struct {
	client *http.Client

	mu  sync.Mutex
	doc *goquery.Document
	url *url.URL
}

func (s *StaticSession) Goto(ctx context.Context, target string, timeout time.Duration) (int, error) {
	return s.load(ctx, http.MethodGet, target, nil, timeout)
}

func (s *StaticSession) WaitReady(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.document() == nil {
		return errors.New("no document loaded")
	}
	return nil
}

func (s *StaticSession) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.url == nil {
		return "about:blank"
	}
	return s.url.String()
}

func (s *StaticSession) Title(ctx context.Context) (string, error) {
	doc := s.document()
	if doc == nil {
		return "", errors.New("no document loaded")
	}
	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}

func (s *StaticSession) Query(selector string) Query {
	return &staticQuery{session: s, sel: ParseSelector(selector), index: -1}
}

func (s *StaticSession) Capture(ctx context.Context) (Capture, error) {
	doc := s.document()
	if doc == nil {
		return Capture{}, errors.New("no document loaded")
	}
	markup, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return Capture{}, fmt.Errorf("failed to render document: %w", err)
	}
	return Capture{Data: []byte(markup), Ext: "html"}, nil
}

// Console is always empty: no scripts run in a static session.
func (s *StaticSession) Console() []ConsoleMessage {
	return nil
}

func (s *StaticSession) Close() error {
	s.client.CloseIdleConnections()
	s.mu.Lock()
	s.doc = nil
	s.mu.Unlock()
	return nil
}

func (s *StaticSession) document() *goquery.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

func (s *StaticSession) resolve(ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	s.mu.Lock()
	base := s.url
	s.mu.Unlock()
	if base == nil {
		return u.String(), nil
	}
	return base.ResolveReference(u).String(), nil
}

func (s *StaticSession) load(ctx context.Context, method, target string, form url.Values, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, fmt.Errorf("failed to build request for %q: %w", target, err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, timeoutError("navigate", target, timeout)
		}
		return 0, fmt.Errorf("navigate %q: %w", target, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to parse %q: %w", target, err)
	}

	s.mu.Lock()
	s.doc = doc
	s.url = resp.Request.URL
	s.mu.Unlock()
	return resp.StatusCode, nil
}

// submit sends form the way a browser does when submitter is activated.
func (s *StaticSession) submit(ctx context.Context, form, submitter *goquery.Selection, timeout time.Duration) error {
	method := strings.ToUpper(strings.TrimSpace(form.AttrOr("method", http.MethodGet)))
	if method != http.MethodPost {
		method = http.MethodGet
	}
	action := form.AttrOr("action", "")
	if override, ok := submitter.Attr("formaction"); ok {
		action = override
	}
	target, err := s.resolve(action)
	if err != nil {
		return err
	}

	values := formValues(form)
	if name := submitter.AttrOr("name", ""); name != "" {
		values.Add(name, submitter.AttrOr("value", ""))
	}

	if method == http.MethodGet {
		u, err := url.Parse(target)
		if err != nil {
			return fmt.Errorf("invalid form action %q: %w", target, err)
		}
		u.RawQuery = values.Encode()
		target = u.String()
	}
	_, err = s.load(ctx, method, target, values, timeout)
	return err
}

func formValues(form *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input, select, textarea").Each(func(_ int, field *goquery.Selection) {
		name := field.AttrOr("name", "")
		if name == "" {
			return
		}
		if _, disabled := field.Attr("disabled"); disabled {
			return
		}
		switch goquery.NodeName(field) {
		case "input":
			switch strings.ToLower(field.AttrOr("type", "text")) {
			case "submit", "button", "image", "reset", "file":
				return
			case "checkbox", "radio":
				if _, checked := field.Attr("checked"); !checked {
					return
				}
				values.Add(name, field.AttrOr("value", "on"))
				return
			}
			values.Add(name, field.AttrOr("value", ""))
		case "select":
			opt := field.Find("option[selected]").First()
			if opt.Length() == 0 {
				opt = field.Find("option").First()
			}
			if opt.Length() == 0 {
				return
			}
			values.Add(name, opt.AttrOr("value", strings.TrimSpace(opt.Text())))
		case "textarea":
			values.Add(name, field.Text())
		}
	})
	return values
}

type staticQuery struct {
	session *StaticSession
	sel     Selector
	index   int
}

func (q *staticQuery) Selector() string { return q.sel.Raw }

func (q *staticQuery) First() Query { return q.Nth(0) }

// Nth narrows the match set; on an already narrowed query only index 0
// keeps the element.
func (q *staticQuery) Nth(index int) Query {
	if q.index >= 0 {
		if index == 0 {
			return q
		}
		index = math.MaxInt32
	}
	return &staticQuery{session: q.session, sel: q.sel, index: index}
}

// matches evaluates the selector against the current document.
func (q *staticQuery) matches() *goquery.Selection {
	doc := q.session.document()
	if doc == nil {
		return &goquery.Selection{}
	}

	var found *goquery.Selection
	if q.sel.Text != "" {
		found = doc.Find("body *").Not("script, style").FilterFunction(func(_ int, el *goquery.Selection) bool {
			if !q.sel.MatchesText(el.Text()) {
				return false
			}
			// Keep only the deepest element carrying the text.
			return el.Children().FilterFunction(func(_ int, child *goquery.Selection) bool {
				return q.sel.MatchesText(child.Text())
			}).Length() == 0
		})
	} else {
		found = doc.Find(q.sel.CSS)
		if q.sel.HasText != "" {
			found = found.FilterFunction(func(_ int, el *goquery.Selection) bool {
				return q.sel.MatchesText(el.Text())
			})
		}
	}

	if q.index >= 0 {
		if q.index >= found.Length() {
			return &goquery.Selection{}
		}
		return found.Eq(q.index)
	}
	return found
}

func (q *staticQuery) first(op string, timeout time.Duration) (*goquery.Selection, error) {
	el := q.matches().First()
	if el.Length() == 0 {
		return nil, timeoutError(op, q.sel.Raw, timeout)
	}
	return el, nil
}

func (q *staticQuery) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return q.matches().Length(), nil
}

func (q *staticQuery) IsVisible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	el := q.matches().First()
	return el.Length() > 0 && staticVisible(el), nil
}

func (q *staticQuery) IsEnabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	el, err := q.first("is enabled", 0)
	if err != nil {
		return false, err
	}
	return staticEnabled(el), nil
}

func (q *staticQuery) Click(ctx context.Context, opts ClickOptions) error {
	el, err := q.first("click", opts.Timeout)
	if err != nil {
		return err
	}
	if !opts.Force && (!staticVisible(el) || !staticEnabled(el)) {
		return timeoutError("click (element not actionable)", q.sel.Raw, opts.Timeout)
	}
	if !staticEnabled(el) {
		// A forced click on a disabled control is dispatched and ignored.
		return nil
	}

	if link := el.Closest("a[href]"); link.Length() > 0 {
		target, err := q.session.resolve(link.AttrOr("href", ""))
		if err != nil {
			return err
		}
		_, err = q.session.load(ctx, http.MethodGet, target, nil, opts.Timeout)
		return err
	}

	switch goquery.NodeName(el) {
	case "button":
		kind := strings.ToLower(el.AttrOr("type", "submit"))
		if kind != "submit" {
			return nil
		}
	case "input":
		switch strings.ToLower(el.AttrOr("type", "text")) {
		case "submit", "image":
		case "checkbox", "radio":
			if _, checked := el.Attr("checked"); checked {
				el.RemoveAttr("checked")
			} else {
				el.SetAttr("checked", "checked")
			}
			return nil
		default:
			return nil
		}
	default:
		return nil
	}

	form := el.Closest("form")
	if form.Length() == 0 {
		return nil
	}
	return q.session.submit(ctx, form, el, opts.Timeout)
}

func (q *staticQuery) Fill(ctx context.Context, value string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	el, err := q.first("fill", timeout)
	if err != nil {
		return err
	}
	if !staticVisible(el) || !staticEnabled(el) {
		return timeoutError("fill (element not editable)", q.sel.Raw, timeout)
	}
	switch goquery.NodeName(el) {
	case "input":
		el.SetAttr("value", value)
	case "textarea":
		el.SetText(value)
	default:
		return fmt.Errorf("fill %q: element is not an input: %w", q.sel.Raw, ErrUnsupported)
	}
	return nil
}

func (q *staticQuery) SelectOption(ctx context.Context, value string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	el, err := q.first("select option", timeout)
	if err != nil {
		return err
	}
	if goquery.NodeName(el) != "select" {
		return fmt.Errorf("select option %q: element is not a select: %w", q.sel.Raw, ErrUnsupported)
	}
	options := el.Find("option")
	chosen := options.FilterFunction(func(_ int, opt *goquery.Selection) bool {
		v, ok := opt.Attr("value")
		if ok && v == value {
			return true
		}
		return NormalizeText(opt.Text()) == NormalizeText(value)
	}).First()
	if chosen.Length() == 0 {
		return fmt.Errorf("select option %q: no option %q: %w", q.sel.Raw, value, ErrNoMatch)
	}
	options.RemoveAttr("selected")
	chosen.SetAttr("selected", "selected")
	return nil
}

func (q *staticQuery) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	el, err := q.first("text content", 0)
	if err != nil {
		return "", err
	}
	return el.Text(), nil
}

func (q *staticQuery) AllTexts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var texts []string
	q.matches().Each(func(_ int, el *goquery.Selection) {
		texts = append(texts, el.Text())
	})
	return texts, nil
}

func (q *staticQuery) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	el, err := q.first("attribute", 0)
	if err != nil {
		return "", false, err
	}
	v, ok := el.Attr(name)
	return v, ok, nil
}

// staticVisible approximates CSS visibility from markup: hidden attributes,
// inline display/visibility styles and non-rendered containers.
func staticVisible(el *goquery.Selection) bool {
	if goquery.NodeName(el) == "input" && strings.EqualFold(el.AttrOr("type", ""), "hidden") {
		return false
	}
	for n := el; n.Length() > 0; n = n.Parent() {
		if n.Get(0).Type != html.ElementNode {
			break
		}
		switch goquery.NodeName(n) {
		case "head", "template", "script", "style":
			return false
		}
		if _, hidden := n.Attr("hidden"); hidden {
			return false
		}
		style := strings.ReplaceAll(strings.ToLower(n.AttrOr("style", "")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func staticEnabled(el *goquery.Selection) bool {
	if _, disabled := el.Attr("disabled"); disabled {
		return false
	}
	return !strings.EqualFold(el.AttrOr("aria-disabled", ""), "true")
}
