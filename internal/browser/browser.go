// Package browser defines the DOM-level surface the smoke harness drives and
// the drivers that implement it (Playwright, Chrome DevTools, static HTML).
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Errors shared by every driver.
var (
	ErrTimeout       = errors.New("timed out")
	ErrNoMatch       = errors.New("no element matches selector")
	ErrUnsupported   = errors.New("operation not supported by driver")
	ErrUnknownDriver = errors.New("unknown browser")
)

// Session is one isolated browsing context (cookies, storage, history).
// It is created per scenario and never shared.
type Session interface {
	// Goto navigates to url and returns the HTTP status of the main document.
	// It waits for DOMContentLoaded, not network idle.
	Goto(ctx context.Context, url string, timeout time.Duration) (int, error)

	// WaitReady blocks until the current document reached DOMContentLoaded.
	WaitReady(ctx context.Context, timeout time.Duration) error

	// URL returns the current location.
	URL() string

	// Title returns the document title.
	Title(ctx context.Context) (string, error)

	// Query returns a lazy handle for selector; nothing is resolved until a
	// method on the returned Query is called.
	Query(selector string) Query

	// Capture takes a full-page capture of the current document.
	Capture(ctx context.Context) (Capture, error)

	// Console returns the console messages emitted so far.
	Console() []ConsoleMessage

	Close() error
}

// Query mirrors a Playwright locator: it is re-evaluated against the live DOM
// on every call.
type Query interface {
	Selector() string
	First() Query
	Nth(index int) Query

	Count(ctx context.Context) (int, error)
	IsVisible(ctx context.Context) (bool, error)
	// IsEnabled reports false for disabled and aria-disabled="true" elements.
	IsEnabled(ctx context.Context) (bool, error)

	Click(ctx context.Context, opts ClickOptions) error
	Fill(ctx context.Context, value string, timeout time.Duration) error
	SelectOption(ctx context.Context, value string, timeout time.Duration) error

	Text(ctx context.Context) (string, error)
	AllTexts(ctx context.Context) ([]string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
}

// ClickOptions tunes Query.Click.
type ClickOptions struct {
	// Force skips the visible/enabled actionability checks.
	Force   bool
	Timeout time.Duration
}

// Capture is a rendered snapshot of a page. Ext is the file extension the
// artifact should be written with ("png" for real browsers, "html" for the
// static driver).
type Capture struct {
	Data []byte
	Ext  string
}

// ConsoleMessage is one browser console entry.
type ConsoleMessage struct {
	Type string
	Text string
	Time time.Time
}

// Launcher owns a browser process and hands out isolated sessions.
type Launcher interface {
	NewSession(ctx context.Context) (Session, error)
	Close() error
}

// LaunchOptions configures a Launcher.
type LaunchOptions struct {
	// Browser is one of chromium, firefox, webkit, cdp or static.
	Browser  string
	Headless bool
	// ExecPath overrides the browser binary for the cdp driver.
	ExecPath string
	// Viewport for real browsers; zero means driver default.
	Width, Height int
}

// Launch starts the driver that serves opts.Browser.
func Launch(ctx context.Context, opts LaunchOptions) (Launcher, error) {
	switch opts.Browser {
	case "chromium", "firefox", "webkit", "":
		l, err := NewPlaywrightLauncher(opts)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "cdp":
		l, err := NewCDPLauncher(ctx, opts)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "static":
		return NewStaticLauncher(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Browser)
	}
}

// Browsers lists the accepted LaunchOptions.Browser values.
func Browsers() []string {
	return []string{"chromium", "firefox", "webkit", "cdp", "static"}
}

// timeoutError wraps ErrTimeout with the operation and selector involved.
func timeoutError(op, selector string, timeout time.Duration) error {
	return fmt.Errorf("%s %q: %w after %s", op, selector, ErrTimeout, timeout)
}
