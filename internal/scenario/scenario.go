// Package scenario defines the smoke journeys and runs them, one isolated
// browser session per attempt.
package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/browser"
	"github.com/adyen/storesmoke/internal/config"
	"github.com/adyen/storesmoke/internal/models"
	"github.com/adyen/storesmoke/internal/pages"
)

var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario is one user journey. Run executes its steps in order and returns
// the first hard failure.
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) error
}

// Fixture is the shop data scenarios act on.
type Fixture struct {
	Product string
	Size    string
	// FallbackProduct has variants but no size data.
	FallbackProduct string
	Email           string
	Password        string
	Card            pages.Card
}

// FixtureFromConfig builds the fixture from loaded configuration.
func FixtureFromConfig(harness *config.HarnessConfig, checkout *config.CheckoutConfig) Fixture {
	return Fixture{
		Product:         harness.Product,
		Size:            harness.Size,
		FallbackProduct: harness.FallbackProduct,
		Email:           checkout.Email,
		Password:        checkout.Password,
		Card: pages.Card{
			Number:       checkout.CardNumber,
			ExpiryDate:   checkout.ExpiryDate,
			SecurityCode: checkout.SecurityCode,
			HolderName:   checkout.HolderName,
		},
	}
}

// Env is what a scenario attempt works with. Its pages share one session
// that no other attempt sees.
type Env struct {
	Home     *pages.Home
	Cart     *pages.Cart
	Checkout *pages.Checkout
	Fixture  Fixture
	Logger   *zap.Logger

	session      browser.Session
	pageOpts     pages.Options
	strict       bool
	scenario     string
	softFailures []models.SoftFailure
	artifacts    []string
}

func newEnv(name string, session browser.Session, opts pages.Options, fixture Fixture, strict bool, logger *zap.Logger) *Env {
	opts.Logger = logger
	return &Env{
		Home:     pages.NewHome(session, opts),
		Cart:     pages.NewCart(session, opts),
		Checkout: pages.NewCheckout(session, opts),
		Fixture:  fixture,
		Logger:   logger,
		session:  session,
		pageOpts: opts,
		strict:   strict,
		scenario: name,
	}
}

// Product binds a product page to the scenario's session.
func (e *Env) Product(slug string) *pages.Product {
	return pages.NewProduct(e.session, e.pageOpts, slug)
}

func (e *Env) Session() browser.Session { return e.session }

// Soft records a failed optional check and lets the scenario continue. In
// strict mode the check fails the scenario instead.
func (e *Env) Soft(page string, check pages.Check) error {
	if check.OK() {
		return nil
	}
	e.Logger.Warn("soft failure",
		zap.String("page", page),
		zap.String("check", check.Name),
		zap.String("detail", check.Detail))
	if e.strict {
		return check.Hard(page)
	}
	e.softFailures = append(e.softFailures, models.SoftFailure{
		Check:  fmt.Sprintf("%s: %s", page, check.Name),
		Detail: check.Detail,
	})
	return nil
}

// Evidence screenshots page as proof of a passing step. Capture problems
// are logged, never returned.
func (e *Env) Evidence(ctx context.Context, page pages.Page) {
	if e.pageOpts.Recorder == nil {
		return
	}
	path, err := page.Screenshot(ctx, e.scenario+"-"+page.Name())
	if err != nil {
		e.Logger.Warn("failed to capture evidence", zap.String("page", page.Name()), zap.Error(err))
		return
	}
	e.artifacts = append(e.artifacts, path)
}

// Select returns the scenarios named in names, in catalog order. No names
// selects all of them.
func Select(all []Scenario, names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return all, nil
	}
	known := lo.Map(all, func(s Scenario, _ int) string { return s.Name })
	if unknown := lo.Without(lo.Uniq(names), known...); len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %v (known: %v)", ErrUnknownScenario, unknown, known)
	}
	return lo.Filter(all, func(s Scenario, _ int) bool { return lo.Contains(names, s.Name) }), nil
}
