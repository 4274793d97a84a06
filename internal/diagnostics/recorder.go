// Package diagnostics writes screenshot and console-log artifacts for a run.
package diagnostics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/adyen/storesmoke/internal/browser"
)

const (
	ScreenshotsDir = "screenshots"
	ConsoleDir     = "console"

	runDirLayout   = "run-2006-01-02-15-04-05"
	timestampStamp = "2006-01-02_15-04-05.000"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// NewRunDir creates base/run-<timestamp> and returns its path.
func NewRunDir(base string, now time.Time) (string, error) {
	dir := filepath.Join(base, now.Format(runDirLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return dir, nil
}

// Recorder writes artifacts under a run directory. Artifacts are named
// {name}-{timestamp}.{ext}; a name/timestamp collision gets a numeric
// suffix so no file is ever overwritten.
type Recorder struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	seen map[string]int
}

func NewRecorder(runDir string) *Recorder {
	return &Recorder{dir: runDir, now: time.Now, seen: map[string]int{}}
}

func (r *Recorder) Dir() string { return r.dir }

// Screenshot captures the session's current page.
func (r *Recorder) Screenshot(ctx context.Context, session browser.Session, name string) (string, error) {
	capture, err := session.Capture(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}
	ext := capture.Ext
	if ext == "" {
		ext = "png"
	}
	return r.write(ScreenshotsDir, name, ext, capture.Data)
}

// ConsoleLog writes the console messages seen by session, one per line.
// It returns "" when there is nothing to write.
func (r *Recorder) ConsoleLog(session browser.Session, name string) (string, error) {
	messages := session.Console()
	if len(messages) == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "%s [%s] %s\n", m.Time.Format(time.RFC3339Nano), m.Type, m.Text)
	}
	return r.write(ConsoleDir, name, "log", []byte(b.String()))
}

func (r *Recorder) write(subdir, name, ext string, data []byte) (string, error) {
	dir := filepath.Join(r.dir, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	path := filepath.Join(dir, r.filename(name, ext))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close artifact: %w", err)
	}
	return path, nil
}

func (r *Recorder) filename(name, ext string) string {
	safe := strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if safe == "" {
		safe = "page"
	}
	base := fmt.Sprintf("%s-%s", safe, r.now().Format(timestampStamp))

	r.mu.Lock()
	defer r.mu.Unlock()
	key := base + "." + ext
	r.seen[key]++
	if n := r.seen[key]; n > 1 {
		base = fmt.Sprintf("%s-%d", base, n)
	}
	return base + "." + ext
}
