//go:build e2e

package e2e

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/adyen/storesmoke/internal/browser"
	"github.com/adyen/storesmoke/internal/pages"
	"github.com/adyen/storesmoke/internal/storefront"
)

var (
	launcher browser.Launcher
	pagesDir string
	baseURL  string
)

// TestMain serves the demo storefront from an extracted pages directory and
// launches one browser for all tests. SMOKE_BROWSER picks the driver
// (browsers installed via: storesmoke install --browser chromium).
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	var err error

	pagesDir, err = os.MkdirTemp("", "storefront-pages-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(pagesDir)
	if err := storefront.ExtractPages(pagesDir); err != nil {
		panic(err)
	}

	server := httptest.NewServer(storefront.New(os.DirFS(pagesDir), storefront.Options{}))
	defer server.Close()
	baseURL = server.URL

	name := os.Getenv("SMOKE_BROWSER")
	if name == "" {
		name = "chromium"
	}
	launcher, err = browser.Launch(context.Background(), browser.LaunchOptions{
		Browser:  name,
		Headless: true,
		ExecPath: os.Getenv("SMOKE_CHROME_PATH"),
	})
	if err != nil {
		panic(err)
	}
	defer launcher.Close()

	return m.Run()
}

func pageOptions() pages.Options {
	return pages.Options{
		BaseURL:           baseURL,
		Timeout:           3 * time.Second,
		NavigationTimeout: 15 * time.Second,
	}
}

// newSession opens an isolated browsing context closed at test end.
func newSession(t *testing.T) browser.Session {
	t.Helper()
	session, err := launcher.NewSession(context.Background())
	if err != nil {
		t.Fatalf("Failed to open browser session: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}
