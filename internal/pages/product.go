package pages

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/browser"
	"github.com/adyen/storesmoke/internal/locator"
)

var countPattern = regexp.MustCompile(`\d+`)

// Product is a product detail page.
type Product struct {
	*Base
	slug string
}

// NewProduct binds a product page. slug may be empty when the page is
// reached by following a link rather than through Goto.
func NewProduct(session browser.Session, opts Options, slug string) *Product {
	return &Product{Base: newBase("product", session, opts), slug: slug}
}

func (p *Product) Goto(ctx context.Context) error {
	return p.Navigate(ctx, "/products/"+url.PathEscape(p.slug))
}

// VerifyLoaded requires a product path and a non-empty title or product
// info block.
func (p *Product) VerifyLoaded(ctx context.Context) error {
	if err := p.VerifyURL(p.routePattern(`/products/[^/?#]+`)); err != nil {
		return err
	}
	if !p.present(ctx, productTitle, productInfo) {
		return &VerificationError{Page: p.name, Check: "title", Detail: "no product title rendered", Err: ErrElementNotFound}
	}
	if title, ok := p.TextOf(ctx, productTitle); ok && title != "" {
		return nil
	}
	if info, ok := p.TextOf(ctx, productInfo); ok && info != "" {
		return nil
	}
	return &VerificationError{Page: p.name, Check: "title", Detail: "no product title rendered", Err: ErrElementNotFound}
}

func (p *Product) Title(ctx context.Context) (string, error) {
	title, ok := p.TextOf(ctx, productTitle)
	if !ok || title == "" {
		return "", &VerificationError{Page: p.name, Check: "title", Detail: "no product title rendered", Err: ErrElementNotFound}
	}
	return title, nil
}

// Price is a hard check: a product page without a price is broken.
func (p *Product) Price(ctx context.Context) (string, error) {
	price, ok := p.TextOf(ctx, productPrice)
	if !ok || price == "" {
		return "", &VerificationError{Page: p.name, Check: "price", Detail: "no price rendered", Err: ErrElementNotFound}
	}
	return price, nil
}

// SelectSize tries each size pattern in turn until an interaction succeeds.
// The last pattern picks the first available variant whatever its size, so
// products without size data still end up with a selection. The check's
// detail names the pattern that worked.
func (p *Product) SelectSize(ctx context.Context, size string) Check {
	const name = "select size"
	for _, pattern := range sizePatterns {
		if size == "" && pattern.name != FirstAvailableVariant {
			continue
		}
		m, ok := p.locator.ResolveVisible(ctx, pattern.chain(size), p.opts.ProbeTimeout)
		if !ok {
			continue
		}
		if err := p.interact(ctx, m, pattern, size); err != nil {
			p.logger.Debug("size pattern failed",
				zap.String("pattern", pattern.name),
				zap.String("selector", m.Selector),
				zap.Error(err))
			continue
		}
		p.logger.Debug("size selected", zap.String("pattern", pattern.name), zap.String("selector", m.Selector))
		return passed(name, pattern.name)
	}
	return softFail(name, "no variant could be selected for size %q", size)
}

func (p *Product) interact(ctx context.Context, m locator.Match, pattern sizePattern, size string) error {
	if pattern.selectOption {
		return m.Query.SelectOption(ctx, size, p.opts.Timeout)
	}
	enabled, err := m.Query.IsEnabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		return browser.ErrNoMatch
	}
	if err := m.Query.Click(ctx, browser.ClickOptions{Timeout: p.opts.Timeout}); err != nil {
		return err
	}
	return p.session.WaitReady(ctx, p.opts.NavigationTimeout)
}

// SetQuantity is optional: stores without a quantity input add one unit.
func (p *Product) SetQuantity(ctx context.Context, n int) Check {
	const name = "set quantity"
	m, ok := p.locator.ResolveVisible(ctx, productQuantity, p.opts.ProbeTimeout)
	if !ok {
		return softFail(name, "no quantity input")
	}
	if err := m.Query.Fill(ctx, strconv.Itoa(n), p.opts.Timeout); err != nil {
		return softFail(name, "%v", err)
	}
	return passed(name, m.Selector)
}

// AddToCart waits for the add-to-cart control to become visible and
// enabled. When it never does the click is forced anyway, and the outcome
// is reported rather than raised.
func (p *Product) AddToCart(ctx context.Context) Check {
	const name = "add to cart"
	m, ok := p.locator.Resolve(ctx, productAddToCart)
	if !ok {
		return softFail(name, "add-to-cart control not found")
	}

	ready := p.awaitActionable(ctx, m.Query)
	if !ready {
		p.logger.Warn("add-to-cart control not ready, forcing click",
			zap.String("selector", m.Selector),
			zap.Duration("waited", p.opts.ReadyTimeout))
	}
	if err := m.Query.Click(ctx, browser.ClickOptions{Force: !ready, Timeout: p.opts.Timeout}); err != nil {
		return softFail(name, "click failed: %v", err)
	}
	if err := p.session.WaitReady(ctx, p.opts.NavigationTimeout); err != nil {
		return softFail(name, "page did not settle: %v", err)
	}

	if !p.Exists(ctx, productAdded) {
		if !ready {
			return softFail(name, "control never became ready; forced click was not confirmed")
		}
		return softFail(name, "no add-to-cart confirmation shown")
	}
	return passed(name, m.Selector)
}

// awaitActionable polls until q is visible and enabled or ReadyTimeout
// passes.
func (p *Product) awaitActionable(ctx context.Context, q browser.Query) bool {
	deadline := time.Now().Add(p.opts.ReadyTimeout)
	for {
		visible, verr := q.IsVisible(ctx)
		enabled, eerr := q.IsEnabled(ctx)
		if verr == nil && eerr == nil && visible && enabled {
			return true
		}
		wait := min(time.Until(deadline), locator.DefaultInterval)
		if wait <= 0 {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
	}
}

// CartBadgeCount reads the header cart badge. A missing or unreadable
// badge is a soft failure.
func (p *Product) CartBadgeCount(ctx context.Context) (int, Check) {
	return badgeCount(ctx, p.Base)
}

func badgeCount(ctx context.Context, b *Base) (int, Check) {
	const name = "cart badge"
	text, ok := b.TextOf(ctx, cartBadge)
	if !ok {
		return 0, softFail(name, "badge not found")
	}
	digits := countPattern.FindString(text)
	if digits == "" {
		return 0, softFail(name, "badge text %q has no count", text)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, softFail(name, "%v", err)
	}
	return n, passed(name, text)
}
