package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adyen/storesmoke/internal/browser"
	"github.com/adyen/storesmoke/internal/diagnostics"
	"github.com/adyen/storesmoke/internal/models"
	"github.com/adyen/storesmoke/internal/pages"
)

// RunnerOptions tune a Runner. Zero Workers runs one scenario at a time.
type RunnerOptions struct {
	Workers int
	// Retries re-runs a failed scenario; a later pass is reported as flaky.
	Retries int
	// Strict turns soft failures into hard failures.
	Strict  bool
	Pages   pages.Options
	Fixture Fixture
}

// Runner executes scenarios, each attempt in a fresh session.
type Runner struct {
	launcher browser.Launcher
	recorder *diagnostics.Recorder
	logger   *zap.Logger
	opts     RunnerOptions
}

// NewRunner creates a runner. recorder may be nil to skip artifacts.
func NewRunner(launcher browser.Launcher, recorder *diagnostics.Recorder, logger *zap.Logger, opts RunnerOptions) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	opts.Pages.Recorder = recorder
	return &Runner{launcher: launcher, recorder: recorder, logger: logger, opts: opts}
}

// Run executes scenarios on a bounded worker pool and returns one result per
// scenario in input order.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) []models.ScenarioResult {
	results := make([]models.ScenarioResult, len(scenarios))

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i, sc := range scenarios {
		g.Go(func() error {
			results[i] = r.runScenario(ctx, sc)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Runner) runScenario(ctx context.Context, sc Scenario) models.ScenarioResult {
	logger := r.logger.With(zap.String("scenario", sc.Name))
	res := models.ScenarioResult{Scenario: sc.Name}
	start := time.Now()

	for attempt := 1; attempt <= 1+r.opts.Retries; attempt++ {
		res.Attempts = attempt
		out := r.attempt(ctx, sc, logger.With(zap.Int("attempt", attempt)))
		res.SoftFailures = out.softFailures
		res.Artifacts = append(res.Artifacts, out.artifacts...)

		if out.err == nil {
			res.Status = models.ScenarioPassed
			res.Error = ""
			if attempt > 1 {
				res.Status = models.ScenarioFlaky
			}
			break
		}
		res.Status = models.ScenarioFailed
		res.Error = out.err.Error()
		logger.Error("scenario failed", zap.Int("attempt", attempt), zap.Error(out.err))
		if ctx.Err() != nil {
			break
		}
	}

	res.Duration = time.Since(start)
	logger.Info("scenario finished",
		zap.String("status", string(res.Status)),
		zap.Int("attempts", res.Attempts),
		zap.Duration("duration", res.Duration))
	return res
}

type attemptResult struct {
	err          error
	softFailures []models.SoftFailure
	artifacts    []string
}

func (r *Runner) attempt(ctx context.Context, sc Scenario, logger *zap.Logger) (out attemptResult) {
	session, err := r.launcher.NewSession(ctx)
	if err != nil {
		out.err = fmt.Errorf("failed to open browser session: %w", err)
		return out
	}

	env := newEnv(sc.Name, session, r.opts.Pages, r.opts.Fixture, r.opts.Strict, logger)
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("failed to close session", zap.Error(cerr))
		}
	}()

	out.err = r.execute(ctx, sc, env)
	out.softFailures = env.softFailures
	out.artifacts = env.artifacts
	if out.err != nil {
		paths, cerr := r.captureFailure(ctx, sc.Name, session)
		if cerr != nil {
			logger.Warn("failed to capture diagnostics", zap.Error(cerr))
		}
		out.artifacts = append(out.artifacts, paths...)
	}
	return out
}

// execute runs the scenario, turning a panic into a failure.
func (r *Runner) execute(ctx context.Context, sc Scenario, env *Env) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("scenario panicked: %v", p)
		}
	}()
	if sc.Run == nil {
		return errors.New("scenario has no steps")
	}
	return sc.Run(ctx, env)
}

// captureFailure writes a screenshot and the console log for a failed
// attempt.
func (r *Runner) captureFailure(ctx context.Context, name string, session browser.Session) ([]string, error) {
	if r.recorder == nil {
		return nil, nil
	}
	// The scenario context may be what failed; captures get their own budget.
	captureCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	var paths []string
	var errs error
	if path, err := r.recorder.Screenshot(captureCtx, session, name); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		paths = append(paths, path)
	}
	if path, err := r.recorder.ConsoleLog(session, name); err != nil {
		errs = multierr.Append(errs, err)
	} else if path != "" {
		paths = append(paths, path)
	}
	return paths, errs
}

// PreconditionFailed reports every scenario as not run because the
// environment check failed.
func PreconditionFailed(scenarios []Scenario, cause error) []models.ScenarioResult {
	results := make([]models.ScenarioResult, len(scenarios))
	for i, sc := range scenarios {
		results[i] = models.ScenarioResult{
			Scenario: sc.Name,
			Status:   models.ScenarioPreconditionFailed,
			Error:    cause.Error(),
		}
	}
	return results
}
