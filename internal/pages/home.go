package pages

import (
	"context"

	"github.com/adyen/storesmoke/internal/browser"
)

// Home is the storefront root.
type Home struct {
	*Base
}

func NewHome(session browser.Session, opts Options) *Home {
	return &Home{Base: newBase("home", session, opts)}
}

func (h *Home) Goto(ctx context.Context) error {
	return h.Navigate(ctx, "/")
}

// VerifyLoaded requires the base host in the URL and either a product card
// or the primary content region.
func (h *Home) VerifyLoaded(ctx context.Context) error {
	if err := h.VerifyURL(h.routePattern(`/?`)); err != nil {
		return err
	}
	if h.present(ctx, homeProductCard, homeMainContent) {
		return nil
	}
	return &VerificationError{Page: h.name, Check: "content", Detail: "no product card or main content region", Err: ErrElementNotFound}
}

// ClickFirstProduct opens the first listed product.
func (h *Home) ClickFirstProduct(ctx context.Context) error {
	if err := h.SafeClick(ctx, homeProductLink); err != nil {
		return err
	}
	return h.WaitReady(ctx)
}

// ProductNames lists the product names shown on the page.
func (h *Home) ProductNames(ctx context.Context) ([]string, error) {
	return h.TextsOf(ctx, homeProductName)
}
