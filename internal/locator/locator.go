// Package locator resolves named selector chains against a live page. A chain
// lists selectors from most to least specific; the first one present in the
// DOM wins.
package locator

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/browser"
)

const (
	DefaultTimeout  = 2 * time.Second
	DefaultInterval = 100 * time.Millisecond
)

// Chain is an immutable, ordered list of selector candidates for one
// logical element.
type Chain struct {
	name       string
	candidates []string
}

// New builds a chain. Duplicate candidates collapse onto their first
// occurrence; empty candidates are dropped.
func New(name string, candidates ...string) Chain {
	cleaned := lo.Uniq(lo.Compact(candidates))
	return Chain{name: name, candidates: cleaned}
}

func (c Chain) Name() string { return c.name }

// Candidates returns a copy of the selectors in priority order.
func (c Chain) Candidates() []string {
	return append([]string(nil), c.candidates...)
}

func (c Chain) Len() int { return len(c.candidates) }

// Match is a resolved chain: the winning selector and a handle on its first
// node.
type Match struct {
	Chain    string
	Selector string
	// Index is the winning candidate's position in the chain.
	Index int
	Query browser.Query
}

// Fallback reports whether a candidate other than the first one won.
func (m Match) Fallback() bool { return m.Index > 0 }

// Strategy resolves chains against one session.
type Strategy struct {
	session  browser.Session
	timeout  time.Duration
	interval time.Duration
	logger   *zap.Logger
}

type Option func(*Strategy)

func WithTimeout(d time.Duration) Option {
	return func(s *Strategy) { s.timeout = d }
}

func WithInterval(d time.Duration) Option {
	return func(s *Strategy) { s.interval = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Strategy) { s.logger = logger }
}

func NewStrategy(session browser.Session, opts ...Option) *Strategy {
	s := &Strategy{
		session:  session,
		timeout:  DefaultTimeout,
		interval: DefaultInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Strategy) Timeout() time.Duration { return s.timeout }

// Resolve waits up to the default timeout for any candidate of chain.
// Absence is reported through ok, never as an error.
func (s *Strategy) Resolve(ctx context.Context, chain Chain) (Match, bool) {
	return s.ResolveWithin(ctx, chain, s.timeout)
}

// ResolveWithin is Resolve with an explicit bound.
func (s *Strategy) ResolveWithin(ctx context.Context, chain Chain, timeout time.Duration) (Match, bool) {
	return s.poll(ctx, chain, timeout, false)
}

// ResolveVisible is ResolveWithin but the first node of the winning
// candidate must also be visible.
func (s *Strategy) ResolveVisible(ctx context.Context, chain Chain, timeout time.Duration) (Match, bool) {
	return s.poll(ctx, chain, timeout, true)
}

func (s *Strategy) poll(ctx context.Context, chain Chain, timeout time.Duration, visible bool) (Match, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if m, ok := s.round(ctx, chain, visible); ok {
			if m.Fallback() {
				s.logger.Debug("resolved via fallback selector",
					zap.String("chain", chain.name),
					zap.String("selector", m.Selector),
					zap.Int("index", m.Index))
			}
			return m, true
		}

		wait := time.Until(deadline)
		if wait <= 0 {
			break
		}
		wait = min(wait, s.interval)
		select {
		case <-ctx.Done():
			s.logger.Debug("resolution cancelled", zap.String("chain", chain.name), zap.Error(ctx.Err()))
			return Match{Chain: chain.name, Index: -1}, false
		case <-time.After(wait):
		}
	}

	s.logger.Debug("no candidate matched",
		zap.String("chain", chain.name),
		zap.Strings("candidates", chain.candidates),
		zap.Duration("timeout", timeout))
	return Match{Chain: chain.name, Index: -1}, false
}

// round checks every candidate once, in list order.
func (s *Strategy) round(ctx context.Context, chain Chain, visible bool) (Match, bool) {
	for i, candidate := range chain.candidates {
		if ctx.Err() != nil {
			return Match{}, false
		}
		q := s.session.Query(candidate)
		n, err := q.Count(ctx)
		if err != nil {
			s.logger.Debug("candidate query failed",
				zap.String("chain", chain.name),
				zap.String("selector", candidate),
				zap.Error(err))
			continue
		}
		if n == 0 {
			continue
		}
		first := q.First()
		if visible {
			if ok, err := first.IsVisible(ctx); err != nil || !ok {
				continue
			}
		}
		return Match{Chain: chain.name, Selector: candidate, Index: i, Query: first}, true
	}
	return Match{}, false
}
