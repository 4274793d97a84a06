package models

import (
	"time"

	"github.com/google/uuid"
)

// ScenarioStatus is the final state of one scenario in a run.
type ScenarioStatus string

const (
	ScenarioPassed ScenarioStatus = "passed"
	// ScenarioFlaky passed only after at least one retry.
	ScenarioFlaky              ScenarioStatus = "flaky"
	ScenarioFailed             ScenarioStatus = "failed"
	ScenarioPreconditionFailed ScenarioStatus = "precondition-failed"
)

// SoftFailure is a check that failed without failing its scenario.
type SoftFailure struct {
	Check  string `json:"check"`
	Detail string `json:"detail"`
}

// ScenarioResult is one report entry.
type ScenarioResult struct {
	Scenario     string         `json:"scenario"`
	Status       ScenarioStatus `json:"status"`
	Attempts     int            `json:"attempts"`
	Duration     time.Duration  `json:"duration_ns"`
	Error        string         `json:"error,omitempty"`
	SoftFailures []SoftFailure  `json:"soft_failures,omitempty"`
	Artifacts    []string       `json:"artifacts,omitempty"`
}

// Succeeded reports whether the scenario counts as passing.
func (r ScenarioResult) Succeeded() bool {
	return r.Status == ScenarioPassed || r.Status == ScenarioFlaky
}

// Run is one invocation of the harness against a storefront.
type Run struct {
	ID         string           `json:"id"`
	BaseURL    string           `json:"base_url"`
	Browser    string           `json:"browser"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    []ScenarioResult `json:"results"`
}

func NewRun(baseURL, browser string) *Run {
	return &Run{
		ID:        uuid.New().String(),
		BaseURL:   baseURL,
		Browser:   browser,
		StartedAt: time.Now(),
	}
}

// Passed reports whether every scenario succeeded. A run without results
// has not passed.
func (r *Run) Passed() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Succeeded() {
			return false
		}
	}
	return true
}

// Counts tallies results per status.
func (r *Run) Counts() map[ScenarioStatus]int {
	counts := map[ScenarioStatus]int{}
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}
