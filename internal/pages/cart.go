package pages

import (
	"context"
	"strconv"

	"github.com/adyen/storesmoke/internal/browser"
)

// Cart is the cart page. Empty and non-empty carts are both valid states.
type Cart struct {
	*Base
}

func NewCart(session browser.Session, opts Options) *Cart {
	return &Cart{Base: newBase("cart", session, opts)}
}

func (c *Cart) Goto(ctx context.Context) error {
	return c.Navigate(ctx, "/cart")
}

// VerifyLoaded requires the /cart route and any of the cart container, the
// empty-state message or the item count.
func (c *Cart) VerifyLoaded(ctx context.Context) error {
	if err := c.VerifyURL(c.routePattern(`/cart`)); err != nil {
		return err
	}
	if c.present(ctx, cartContainer, cartEmpty, cartItemCount) {
		return nil
	}
	return &VerificationError{Page: c.name, Check: "content", Detail: "no cart container, empty state or item count", Err: ErrElementNotFound}
}

// IsEmpty reports an empty cart when the empty-state message is shown or
// the item count reads zero.
func (c *Cart) IsEmpty(ctx context.Context) bool {
	if c.Visible(ctx, cartEmpty) {
		return true
	}
	n, ok := c.ItemCount(ctx)
	return ok && n == 0
}

// ItemCount reads the item count, reporting false when it is not shown.
func (c *Cart) ItemCount(ctx context.Context) (int, bool) {
	text, ok := c.TextOf(ctx, cartItemCount)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(countPattern.FindString(text))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *Cart) LineItemNames(ctx context.Context) ([]string, error) {
	return c.TextsOf(ctx, cartItemName)
}

func (c *Cart) BadgeCount(ctx context.Context) (int, Check) {
	return badgeCount(ctx, c.Base)
}

func (c *Cart) ProceedToCheckout(ctx context.Context) error {
	if err := c.SafeClick(ctx, cartCheckout); err != nil {
		return err
	}
	return c.WaitReady(ctx)
}
