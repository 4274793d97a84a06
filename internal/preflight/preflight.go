// Package preflight checks that the storefront answers before any scenario
// runs, so an unreachable environment is reported as such and not as a
// wall of scenario failures.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var ErrUnreachable = errors.New("storefront unreachable")

// Checker polls a base URL until it answers or MaxElapsed passes.
type Checker struct {
	Client          *http.Client
	InitialInterval time.Duration
	MaxElapsed      time.Duration
	Logger          *zap.Logger
}

// NewChecker returns a checker that retries for up to maxElapsed.
func NewChecker(maxElapsed time.Duration, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		Client:          &http.Client{Timeout: 5 * time.Second},
		InitialInterval: 250 * time.Millisecond,
		MaxElapsed:      maxElapsed,
		Logger:          logger,
	}
}

// Check succeeds once baseURL returns any status below 500. Connection
// errors and server errors are retried with exponential backoff. A zero
// MaxElapsed makes a single attempt.
func (c *Checker) Check(ctx context.Context, baseURL string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxElapsedTime = c.MaxElapsed
	var policy backoff.BackOff = b
	if c.MaxElapsed <= 0 {
		// MaxElapsedTime 0 would retry forever
		policy = backoff.WithMaxRetries(b, 0)
	}

	attempts := 0
	operation := func() error {
		attempts++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("invalid base url: %w", err))
		}
		resp, err := c.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("server answered HTTP %d", resp.StatusCode)
		}
		c.Logger.Debug("storefront reachable", zap.String("url", baseURL), zap.Int("status", resp.StatusCode))
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.Logger.Info("storefront not ready, retrying",
			zap.String("url", baseURL),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		return fmt.Errorf("%w: %s after %d attempts: %v", ErrUnreachable, baseURL, attempts, err)
	}
	return nil
}
