package cli

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/browser"
	"github.com/adyen/storesmoke/internal/config"
	"github.com/adyen/storesmoke/internal/models"
	"github.com/adyen/storesmoke/internal/scenario"
	"github.com/adyen/storesmoke/internal/storefront"
)

// mockPreflight is a Preflight with a configurable result
type mockPreflight struct {
	CheckFunc func(ctx context.Context, baseURL string) error
}

func (m *mockPreflight) Check(ctx context.Context, baseURL string) error {
	return m.CheckFunc(ctx, baseURL)
}

// mockRunStore records saved runs
type mockRunStore struct {
	SaveRunFunc func(ctx context.Context, run *models.Run) error
	saved       []*models.Run
}

func (m *mockRunStore) SaveRun(ctx context.Context, run *models.Run) error {
	m.saved = append(m.saved, run)
	if m.SaveRunFunc != nil {
		return m.SaveRunFunc(ctx, run)
	}
	return nil
}

func createRunDeps(t *testing.T, baseURL string, names ...string) RunDependencies {
	t.Helper()
	harness, err := config.LoadHarnessConfig(func(key string) string {
		switch key {
		case "SMOKE_BASE_URL":
			return baseURL
		case "SMOKE_BROWSER":
			return "static"
		case "SMOKE_RESULTS_DIR":
			return t.TempDir()
		case "SMOKE_TIMEOUT":
			return "300ms"
		case "SMOKE_NAVIGATION_TIMEOUT":
			return "5s"
		}
		return ""
	})
	if err != nil {
		t.Fatalf("LoadHarnessConfig() error = %v", err)
	}
	harness.Scenarios = names
	checkout, err := config.LoadCheckoutConfig(func(string) string { return "" })
	if err != nil {
		t.Fatalf("LoadCheckoutConfig() error = %v", err)
	}

	return RunDependencies{
		Harness:   harness,
		Checkout:  checkout,
		Scenarios: scenario.Catalog(),
		Preflight: &mockPreflight{CheckFunc: func(context.Context, string) error { return nil }},
		Launch: func(context.Context) (browser.Launcher, error) {
			return browser.NewStaticLauncher(), nil
		},
		Logger: zap.NewNop(),
	}
}

func TestRunSmoke(t *testing.T) {
	server := httptest.NewServer(storefront.New(storefront.Pages(), storefront.Options{}))
	defer server.Close()

	tests := []struct {
		name      string
		preflight error
		wantCode  int
		wantState models.ScenarioStatus
	}{
		{
			name:      "reachable storefront passes",
			wantCode:  ExitPassed,
			wantState: models.ScenarioPassed,
		},
		{
			name:      "unreachable storefront is a precondition failure",
			preflight: errors.New("storefront unreachable"),
			wantCode:  ExitPreconditionFailed,
			wantState: models.ScenarioPreconditionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			deps := createRunDeps(t, server.URL, "homepage-loads", "cart-direct")
			deps.Preflight = &mockPreflight{CheckFunc: func(context.Context, string) error { return tt.preflight }}
			store := &mockRunStore{}
			deps.Runs = store

			// WHEN
			result, err := RunSmoke(context.Background(), deps)

			// THEN
			if err != nil {
				t.Fatalf("RunSmoke() unexpected error = %v", err)
			}
			if code := ExitCode(result.Run); code != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d", code, tt.wantCode)
			}
			if len(result.Run.Results) != 2 {
				t.Fatalf("got %d results, want 2", len(result.Run.Results))
			}
			for _, res := range result.Run.Results {
				if res.Status != tt.wantState {
					t.Errorf("%s status = %s, want %s (%s)", res.Scenario, res.Status, tt.wantState, res.Error)
				}
			}
			if _, err := os.Stat(result.ReportPath); err != nil {
				t.Errorf("report not written: %v", err)
			}
			if len(store.saved) != 1 || store.saved[0].ID != result.Run.ID {
				t.Errorf("run not stored: %v", store.saved)
			}
		})
	}
}

func TestRunSmoke_FailingScenarioExitCode(t *testing.T) {
	deps := createRunDeps(t, "http://127.0.0.1:1")
	deps.Scenarios = []scenario.Scenario{{
		Name: "always-fails",
		Run: func(ctx context.Context, env *scenario.Env) error {
			return errors.New("broken")
		},
	}}

	result, err := RunSmoke(context.Background(), deps)
	if err != nil {
		t.Fatalf("RunSmoke() unexpected error = %v", err)
	}

	if code := ExitCode(result.Run); code != ExitFailed {
		t.Errorf("ExitCode() = %d, want %d", code, ExitFailed)
	}
}

func TestRunSmoke_Errors(t *testing.T) {
	t.Run("unknown scenario", func(t *testing.T) {
		deps := createRunDeps(t, "http://127.0.0.1:1", "nope")
		if _, err := RunSmoke(context.Background(), deps); !errors.Is(err, scenario.ErrUnknownScenario) {
			t.Errorf("RunSmoke() error = %v, want ErrUnknownScenario", err)
		}
	})

	t.Run("launch failure", func(t *testing.T) {
		deps := createRunDeps(t, "http://127.0.0.1:1")
		deps.Launch = func(context.Context) (browser.Launcher, error) {
			return nil, browser.ErrUnknownDriver
		}
		if _, err := RunSmoke(context.Background(), deps); !errors.Is(err, browser.ErrUnknownDriver) {
			t.Errorf("RunSmoke() error = %v, want ErrUnknownDriver", err)
		}
	})

	t.Run("store failure does not fail the run", func(t *testing.T) {
		deps := createRunDeps(t, "http://127.0.0.1:1")
		deps.Preflight = &mockPreflight{CheckFunc: func(context.Context, string) error { return errors.New("down") }}
		deps.Runs = &mockRunStore{SaveRunFunc: func(context.Context, *models.Run) error { return errors.New("db down") }}
		result, err := RunSmoke(context.Background(), deps)
		if err != nil {
			t.Fatalf("RunSmoke() unexpected error = %v", err)
		}
		if result.Run.FinishedAt.Before(result.Run.StartedAt) {
			t.Error("FinishedAt should be set")
		}
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		statuses []models.ScenarioStatus
		want     int
	}{
		{"all passed", []models.ScenarioStatus{models.ScenarioPassed, models.ScenarioFlaky}, ExitPassed},
		{"one failed", []models.ScenarioStatus{models.ScenarioPassed, models.ScenarioFailed}, ExitFailed},
		{"precondition", []models.ScenarioStatus{models.ScenarioPreconditionFailed}, ExitPreconditionFailed},
		{"empty run", nil, ExitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &models.Run{StartedAt: time.Now()}
			for _, s := range tt.statuses {
				run.Results = append(run.Results, models.ScenarioResult{Status: s})
			}
			if got := ExitCode(run); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
