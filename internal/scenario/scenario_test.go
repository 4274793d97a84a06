package scenario

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/browser"
	"github.com/adyen/storesmoke/internal/diagnostics"
	"github.com/adyen/storesmoke/internal/faultinject"
	"github.com/adyen/storesmoke/internal/models"
	"github.com/adyen/storesmoke/internal/pages"
	"github.com/adyen/storesmoke/internal/storefront"
)

func testFixture() Fixture {
	return Fixture{
		Product:         "classic-tee",
		Size:            "M",
		FallbackProduct: "canvas-tote",
		Email:           "smoke@example.com",
		Password:        "smoke-test",
		Card: pages.Card{
			Number:       "4111111111111111",
			ExpiryDate:   "03/30",
			SecurityCode: "737",
			HolderName:   "Smoke Tester",
		},
	}
}

func testRunnerOptions(baseURL string) RunnerOptions {
	return RunnerOptions{
		Workers: 1,
		Pages: pages.Options{
			BaseURL:           baseURL,
			Timeout:           300 * time.Millisecond,
			NavigationTimeout: 5 * time.Second,
			ProbeTimeout:      100 * time.Millisecond,
			ReadyTimeout:      200 * time.Millisecond,
		},
		Fixture: testFixture(),
	}
}

func newStore(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(storefront.New(storefront.Pages(), storefront.Options{}))
	t.Cleanup(server.Close)
	return server.URL
}

type failingLauncher struct{}

func (failingLauncher) NewSession(context.Context) (browser.Session, error) {
	return nil, errors.New("no browser available")
}

func (failingLauncher) Close() error { return nil }

func TestCatalog_PassesAgainstStorefront(t *testing.T) {
	opts := testRunnerOptions(newStore(t))
	opts.Workers = 3
	recorder := diagnostics.NewRecorder(t.TempDir())
	runner := NewRunner(browser.NewStaticLauncher(), recorder, zap.NewNop(), opts)

	results := runner.Run(context.Background(), Catalog())

	require.Len(t, results, len(Catalog()))
	for i, res := range results {
		assert.Equal(t, Catalog()[i].Name, res.Scenario)
		assert.Equal(t, models.ScenarioPassed, res.Status, "%s: %s", res.Scenario, res.Error)
		assert.Equal(t, 1, res.Attempts, res.Scenario)
		assert.Empty(t, res.SoftFailures, res.Scenario)
		require.NotEmpty(t, res.Artifacts, res.Scenario)
		for _, path := range res.Artifacts {
			assert.FileExists(t, path)
		}
	}
}

func TestRunner_FailureCapturesArtifacts(t *testing.T) {
	recorder := diagnostics.NewRecorder(t.TempDir())
	runner := NewRunner(browser.NewStaticLauncher(), recorder, zap.NewNop(), testRunnerOptions(newStore(t)))
	broken := Scenario{Name: "broken", Run: func(ctx context.Context, env *Env) error {
		if err := env.Home.Goto(ctx); err != nil {
			return err
		}
		return errors.New("price missing")
	}}

	results := runner.Run(context.Background(), []Scenario{broken})

	require.Len(t, results, 1)
	res := results[0]
	assert.Equal(t, models.ScenarioFailed, res.Status)
	assert.Equal(t, "price missing", res.Error)
	assert.Equal(t, 1, res.Attempts)
	require.Len(t, res.Artifacts, 1)
	assert.Equal(t, diagnostics.ScreenshotsDir, filepath.Base(filepath.Dir(res.Artifacts[0])))
	assert.FileExists(t, res.Artifacts[0])
}

func TestRunner_Retries(t *testing.T) {
	tests := []struct {
		name         string
		retries      int
		failures     int32
		wantStatus   models.ScenarioStatus
		wantAttempts int
	}{
		{"no retry by default", 0, 1, models.ScenarioFailed, 1},
		{"pass after retry is flaky", 2, 1, models.ScenarioFlaky, 2},
		{"retries exhausted", 2, 5, models.ScenarioFailed, 3},
		{"first attempt passes", 2, 0, models.ScenarioPassed, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testRunnerOptions(newStore(t))
			opts.Retries = tt.retries
			runner := NewRunner(browser.NewStaticLauncher(), nil, zap.NewNop(), opts)

			var calls atomic.Int32
			sc := Scenario{Name: "sometimes", Run: func(ctx context.Context, env *Env) error {
				if calls.Add(1) <= tt.failures {
					return errors.New("transient")
				}
				return nil
			}}

			res := runner.Run(context.Background(), []Scenario{sc})[0]

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantAttempts, res.Attempts)
			if res.Succeeded() {
				assert.Empty(t, res.Error)
			}
		})
	}
}

func TestRunner_StrictMode(t *testing.T) {
	soft := Scenario{Name: "soft", Run: func(ctx context.Context, env *Env) error {
		return env.Soft("product", pages.Check{Name: "cart badge", Outcome: pages.SoftFail, Detail: "badge not found"})
	}}

	// GIVEN the default lenient mode
	opts := testRunnerOptions(newStore(t))
	res := NewRunner(browser.NewStaticLauncher(), nil, zap.NewNop(), opts).Run(context.Background(), []Scenario{soft})[0]

	// THEN the soft failure is reported and the scenario passes
	assert.Equal(t, models.ScenarioPassed, res.Status)
	assert.Equal(t, []models.SoftFailure{{Check: "product: cart badge", Detail: "badge not found"}}, res.SoftFailures)

	// WHEN strict mode is on
	opts.Strict = true
	res = NewRunner(browser.NewStaticLauncher(), nil, zap.NewNop(), opts).Run(context.Background(), []Scenario{soft})[0]

	// THEN the same check fails the scenario
	assert.Equal(t, models.ScenarioFailed, res.Status)
	assert.Contains(t, res.Error, "badge not found")
}

func TestRunner_DetectsRouteFault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, storefront.ExtractPages(dir))
	server := httptest.NewServer(storefront.New(os.DirFS(dir), storefront.Options{}))
	t.Cleanup(server.Close)
	cartDirect, err := Select(Catalog(), []string{"cart-direct"})
	require.NoError(t, err)
	runner := NewRunner(browser.NewStaticLauncher(), nil, zap.NewNop(), testRunnerOptions(server.URL))

	fault, err := faultinject.New(dir, "cart.html")
	require.NoError(t, err)

	// WHEN the cart page is taken down
	require.NoError(t, fault.Inject())
	res := runner.Run(context.Background(), cartDirect)[0]

	// THEN the scenario fails on load
	assert.Equal(t, models.ScenarioFailed, res.Status)
	assert.Contains(t, res.Error, pages.ErrRouteUnavailable.Error())

	// AND passes again once restored
	require.NoError(t, fault.Restore())
	res = runner.Run(context.Background(), cartDirect)[0]
	assert.Equal(t, models.ScenarioPassed, res.Status, res.Error)
}

func TestRunner_SessionFailure(t *testing.T) {
	runner := NewRunner(failingLauncher{}, nil, zap.NewNop(), testRunnerOptions("http://localhost:1"))

	res := runner.Run(context.Background(), Catalog()[:1])[0]

	assert.Equal(t, models.ScenarioFailed, res.Status)
	assert.Contains(t, res.Error, "no browser available")
}

func TestRunner_PanicIsFailure(t *testing.T) {
	runner := NewRunner(browser.NewStaticLauncher(), nil, zap.NewNop(), testRunnerOptions(newStore(t)))
	sc := Scenario{Name: "panics", Run: func(ctx context.Context, env *Env) error {
		panic("nil page")
	}}

	res := runner.Run(context.Background(), []Scenario{sc})[0]

	assert.Equal(t, models.ScenarioFailed, res.Status)
	assert.Contains(t, res.Error, "nil page")
}

func TestSelect(t *testing.T) {
	all := Catalog()

	got, err := Select(all, nil)
	require.NoError(t, err)
	assert.Len(t, got, len(all))

	got, err = Select(all, []string{"variant-fallback", "homepage-loads"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "homepage-loads", got[0].Name)
	assert.Equal(t, "variant-fallback", got[1].Name)

	_, err = Select(all, []string{"homepage-loads", "checkout-v2"})
	assert.ErrorIs(t, err, ErrUnknownScenario)
	assert.Contains(t, err.Error(), "checkout-v2")
}

func TestPreconditionFailedReport(t *testing.T) {
	run := models.NewRun("http://localhost:8080", "static")
	run.Results = PreconditionFailed(Catalog()[:2], errors.New("storefront unreachable"))
	run.FinishedAt = time.Now()

	path, err := WriteReport(t.TempDir(), run)
	require.NoError(t, err)
	assert.Equal(t, ReportFile, filepath.Base(path))

	loaded, err := ReadReport(path)
	require.NoError(t, err)
	assert.False(t, loaded.Passed())
	assert.Equal(t, run.ID, loaded.ID)
	require.Len(t, loaded.Results, 2)
	for _, res := range loaded.Results {
		assert.Equal(t, models.ScenarioPreconditionFailed, res.Status)
		assert.Equal(t, 0, res.Attempts)
		assert.Equal(t, "storefront unreachable", res.Error)
	}
	assert.Equal(t, 2, loaded.Counts()[models.ScenarioPreconditionFailed])

	LogSummary(zap.NewNop(), loaded)
}
