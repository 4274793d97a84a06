package pages

import (
	"errors"
	"fmt"
)

// Outcome is the result of a single verification.
type Outcome int

const (
	Pass Outcome = iota
	// SoftFail is tolerated: it is logged and reported, the scenario goes on.
	SoftFail
	HardFail
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case SoftFail:
		return "soft-fail"
	case HardFail:
		return "hard-fail"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Check is what an optional action reports instead of an error.
type Check struct {
	Name    string
	Outcome Outcome
	Detail  string
}

func (c Check) OK() bool { return c.Outcome == Pass }

func (c Check) String() string {
	if c.Detail == "" {
		return fmt.Sprintf("%s: %s", c.Name, c.Outcome)
	}
	return fmt.Sprintf("%s: %s (%s)", c.Name, c.Outcome, c.Detail)
}

func passed(name, detail string) Check {
	return Check{Name: name, Outcome: Pass, Detail: detail}
}

func softFail(name, format string, args ...any) Check {
	return Check{Name: name, Outcome: SoftFail, Detail: fmt.Sprintf(format, args...)}
}

var (
	ErrRouteUnavailable = errors.New("route unavailable")
	ErrElementNotFound  = errors.New("element not found")
	ErrNoRecorder       = errors.New("no diagnostics recorder configured")
)

// VerificationError is a hard failure on a page.
type VerificationError struct {
	Page   string
	Check  string
	Detail string
	Err    error
}

func (e *VerificationError) Error() string {
	msg := fmt.Sprintf("%s page: %s: %s", e.Page, e.Check, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *VerificationError) Unwrap() error { return e.Err }

// Hard converts a soft failure into the error a strict run fails with.
func (c Check) Hard(page string) error {
	if c.OK() {
		return nil
	}
	return &VerificationError{Page: page, Check: c.Name, Detail: c.Detail}
}
