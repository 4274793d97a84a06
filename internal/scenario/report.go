package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/models"
)

const ReportFile = "report.json"

// WriteReport writes run as indented JSON into dir.
func WriteReport(dir string, run *models.Run) (string, error) {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	path := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*models.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var run models.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &run, nil
}

// LogSummary logs one line per unsuccessful scenario and a total.
func LogSummary(logger *zap.Logger, run *models.Run) {
	failed := lo.Filter(run.Results, func(r models.ScenarioResult, _ int) bool { return !r.Succeeded() })
	for _, res := range failed {
		logger.Error("scenario did not pass",
			zap.String("scenario", res.Scenario),
			zap.String("status", string(res.Status)),
			zap.String("error", res.Error),
			zap.Strings("artifacts", res.Artifacts))
	}

	counts := run.Counts()
	softFailures := lo.SumBy(run.Results, func(r models.ScenarioResult) int { return len(r.SoftFailures) })
	logger.Info("run finished",
		zap.String("run_id", run.ID),
		zap.Bool("passed", run.Passed()),
		zap.Int("scenarios", len(run.Results)),
		zap.Int("passed_scenarios", counts[models.ScenarioPassed]),
		zap.Int("flaky", counts[models.ScenarioFlaky]),
		zap.Int("failed", counts[models.ScenarioFailed]),
		zap.Int("precondition_failed", counts[models.ScenarioPreconditionFailed]),
		zap.Int("soft_failures", softFailures),
		zap.Duration("duration", run.FinishedAt.Sub(run.StartedAt)))
}
