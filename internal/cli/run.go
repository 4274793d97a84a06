package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/browser"
	"github.com/adyen/storesmoke/internal/config"
	"github.com/adyen/storesmoke/internal/diagnostics"
	"github.com/adyen/storesmoke/internal/models"
	"github.com/adyen/storesmoke/internal/pages"
	"github.com/adyen/storesmoke/internal/scenario"
)

// Process exit codes of the run and check commands.
const (
	ExitPassed             = 0
	ExitFailed             = 1
	ExitPreconditionFailed = 2
)

// Preflight checks the environment before scenarios run.
type Preflight interface {
	Check(ctx context.Context, baseURL string) error
}

// RunStore persists finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.Run) error
}

// RunDependencies holds everything a smoke run needs
type RunDependencies struct {
	Harness   *config.HarnessConfig
	Checkout  *config.CheckoutConfig
	Scenarios []scenario.Scenario
	Preflight Preflight
	// Launch starts the browser once the preflight passed.
	Launch func(ctx context.Context) (browser.Launcher, error)
	// Runs is optional.
	Runs   RunStore
	Logger *zap.Logger
}

// RunResult is a finished run and where its artifacts went.
type RunResult struct {
	Run        *models.Run
	Dir        string
	ReportPath string
}

// RunSmoke checks the environment, runs the selected scenarios and writes
// the report. Scenario failures are reported through the result, not the
// error.
func RunSmoke(ctx context.Context, deps RunDependencies) (*RunResult, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := deps.Harness

	scenarios, err := scenario.Select(deps.Scenarios, h.Scenarios)
	if err != nil {
		return nil, err
	}

	run := models.NewRun(h.BaseURL, h.Browser)
	dir, err := diagnostics.NewRunDir(h.ResultsDir, run.StartedAt)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("run_id", run.ID))
	logger.Info("starting smoke run",
		zap.String("base_url", h.BaseURL),
		zap.String("browser", h.Browser),
		zap.Int("scenarios", len(scenarios)),
		zap.String("results", dir))

	if err := deps.Preflight.Check(ctx, h.BaseURL); err != nil {
		logger.Error("environment precondition failed", zap.Error(err))
		run.Results = scenario.PreconditionFailed(scenarios, err)
	} else {
		results, err := runScenarios(ctx, deps, scenarios, dir, logger)
		if err != nil {
			return nil, err
		}
		run.Results = results
	}
	run.FinishedAt = time.Now()

	reportPath, err := scenario.WriteReport(dir, run)
	if err != nil {
		return nil, err
	}
	scenario.LogSummary(logger, run)

	if deps.Runs != nil {
		if err := deps.Runs.SaveRun(ctx, run); err != nil {
			logger.Warn("failed to store run history", zap.Error(err))
		}
	}

	return &RunResult{Run: run, Dir: dir, ReportPath: reportPath}, nil
}

func runScenarios(ctx context.Context, deps RunDependencies, scenarios []scenario.Scenario, dir string, logger *zap.Logger) ([]models.ScenarioResult, error) {
	launcher, err := deps.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", deps.Harness.Browser, err)
	}
	defer func() {
		if err := launcher.Close(); err != nil {
			logger.Warn("failed to close browser", zap.Error(err))
		}
	}()

	h := deps.Harness
	runner := scenario.NewRunner(launcher, diagnostics.NewRecorder(dir), logger, scenario.RunnerOptions{
		Workers: h.Workers,
		Retries: h.Retries,
		Strict:  h.Strict,
		Pages: pages.Options{
			BaseURL:           h.BaseURL,
			Timeout:           h.Timeout,
			NavigationTimeout: h.NavigationTimeout,
		},
		Fixture: scenario.FixtureFromConfig(h, deps.Checkout),
	})
	return runner.Run(ctx, scenarios), nil
}

// ExitCode maps a run to the process exit code.
func ExitCode(run *models.Run) int {
	if run.Counts()[models.ScenarioPreconditionFailed] > 0 {
		return ExitPreconditionFailed
	}
	if !run.Passed() {
		return ExitFailed
	}
	return ExitPassed
}
