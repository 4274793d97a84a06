package pages

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/browser"
	"github.com/adyen/storesmoke/internal/locator"
)

// Card is the payment data entered at checkout.
type Card struct {
	Number       string
	ExpiryDate   string
	SecurityCode string
	// HolderName is filled only when the form asks for it.
	HolderName string
}

// PaymentOutcome is what the shop showed after the pay button.
type PaymentOutcome struct {
	Authorised bool
	Reference  string
	Reason     string
}

// Checkout is the sign-in and payment page.
type Checkout struct {
	*Base
}

func NewCheckout(session browser.Session, opts Options) *Checkout {
	return &Checkout{Base: newBase("checkout", session, opts)}
}

func (c *Checkout) Goto(ctx context.Context) error {
	return c.Navigate(ctx, "/checkout")
}

// VerifyLoaded requires the /checkout route and a sign-in form, payment
// form or checkout heading.
func (c *Checkout) VerifyLoaded(ctx context.Context) error {
	if err := c.VerifyURL(c.routePattern(`/checkout`)); err != nil {
		return err
	}
	if c.present(ctx, checkoutSignInForm, checkoutPaymentForm, checkoutHeading) {
		return nil
	}
	return &VerificationError{Page: c.name, Check: "content", Detail: "no sign-in form, payment form or heading", Err: ErrElementNotFound}
}

// SignIn submits the sign-in form. When no form is rendered, usually
// because the shopper is signed in already, the step is skipped with a
// soft check.
func (c *Checkout) SignIn(ctx context.Context, email, password string) (Check, error) {
	const name = "sign in"
	if !c.Exists(ctx, checkoutSignInForm) {
		return softFail(name, "no sign-in form rendered"), nil
	}
	if err := c.SafeFill(ctx, checkoutEmail, email); err != nil {
		return Check{Name: name, Outcome: HardFail}, err
	}
	if err := c.SafeFill(ctx, checkoutPassword, password); err != nil {
		return Check{Name: name, Outcome: HardFail}, err
	}
	if err := c.SafeClick(ctx, checkoutSignInButton); err != nil {
		return Check{Name: name, Outcome: HardFail}, err
	}
	if err := c.WaitReady(ctx); err != nil {
		return Check{Name: name, Outcome: HardFail}, err
	}
	if msg, ok := c.TextOf(ctx, checkoutError); ok {
		return Check{Name: name, Outcome: HardFail, Detail: msg},
			&VerificationError{Page: c.name, Check: name, Detail: msg}
	}
	return passed(name, email), nil
}

// SubmitPayment fills the card form and presses pay.
func (c *Checkout) SubmitPayment(ctx context.Context, card Card) error {
	fields := []struct {
		chain locator.Chain
		value string
	}{
		{checkoutCardNumber, card.Number},
		{checkoutExpiry, card.ExpiryDate},
		{checkoutSecurityCode, card.SecurityCode},
	}
	for _, f := range fields {
		if err := c.SafeFill(ctx, f.chain, f.value); err != nil {
			return err
		}
	}
	if card.HolderName != "" && c.Exists(ctx, checkoutHolderName) {
		if err := c.SafeFill(ctx, checkoutHolderName, card.HolderName); err != nil {
			return err
		}
	}
	if err := c.SafeClick(ctx, checkoutPayButton); err != nil {
		return err
	}
	return c.WaitReady(ctx)
}

// AwaitOutcome waits for either the confirmation or the failure page.
func (c *Checkout) AwaitOutcome(ctx context.Context) (PaymentOutcome, error) {
	deadline := time.Now().Add(c.opts.NavigationTimeout)
	for {
		if _, ok := c.locator.ResolveWithin(ctx, orderConfirmation, 0); ok {
			ref, _ := c.TextOf(ctx, orderReference)
			c.logger.Info("payment authorised", zap.String("reference", ref))
			return PaymentOutcome{Authorised: true, Reference: ref}, nil
		}
		if _, ok := c.locator.ResolveWithin(ctx, orderFailure, 0); ok {
			ref, _ := c.TextOf(ctx, orderReference)
			reason, _ := c.TextOf(ctx, orderFailureReason)
			c.logger.Info("payment not authorised", zap.String("reference", ref), zap.String("reason", reason))
			return PaymentOutcome{Reference: ref, Reason: reason}, nil
		}
		if msg, ok := c.TextOf(ctx, checkoutError); ok {
			return PaymentOutcome{}, &VerificationError{Page: c.name, Check: "payment outcome", Detail: msg}
		}
		wait := min(time.Until(deadline), locator.DefaultInterval)
		if wait <= 0 {
			return PaymentOutcome{}, &VerificationError{
				Page:   c.name,
				Check:  "payment outcome",
				Detail: "neither confirmation nor failure shown at " + c.URL(),
				Err:    browser.ErrTimeout,
			}
		}
		select {
		case <-ctx.Done():
			return PaymentOutcome{}, ctx.Err()
		case <-time.After(wait):
		}
	}
}
