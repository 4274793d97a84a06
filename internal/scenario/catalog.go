package scenario

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/pages"
)

// Catalog returns the built-in scenarios in run order.
func Catalog() []Scenario {
	return []Scenario{
		{
			Name:        "homepage-loads",
			Description: "The storefront root renders products or its main content",
			Run:         homepageLoads,
		},
		{
			Name:        "product-detail",
			Description: "The first listed product opens a detail page with title and price",
			Run:         productDetail,
		},
		{
			Name:        "add-to-cart",
			Description: "A product with a chosen size can be added to the cart",
			Run:         addToCart,
		},
		{
			Name:        "cart-direct",
			Description: "The cart page loads on a fresh session, empty or not",
			Run:         cartDirect,
		},
		{
			Name:        "checkout-flow",
			Description: "A cart can be checked out and paid with the test card",
			Run:         checkoutFlow,
		},
		{
			Name:        "variant-fallback",
			Description: "A product without size data still gets a variant selected",
			Run:         variantFallback,
		},
	}
}

func homepageLoads(ctx context.Context, env *Env) error {
	if err := env.Home.Goto(ctx); err != nil {
		return err
	}
	if err := env.Home.VerifyLoaded(ctx); err != nil {
		return err
	}
	names, err := env.Home.ProductNames(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		check := pages.Check{Name: "product list", Outcome: pages.SoftFail, Detail: "no product names listed"}
		if err := env.Soft(env.Home.Name(), check); err != nil {
			return err
		}
	}
	env.Logger.Info("homepage loaded", zap.Strings("products", names))
	env.Evidence(ctx, env.Home)
	return nil
}

func productDetail(ctx context.Context, env *Env) error {
	if err := env.Home.Goto(ctx); err != nil {
		return err
	}
	if err := env.Home.VerifyLoaded(ctx); err != nil {
		return err
	}
	if err := env.Home.ClickFirstProduct(ctx); err != nil {
		return err
	}

	product := env.Product("")
	if err := product.VerifyLoaded(ctx); err != nil {
		return err
	}
	title, err := product.Title(ctx)
	if err != nil {
		return err
	}
	price, err := product.Price(ctx)
	if err != nil {
		return err
	}
	env.Logger.Info("product detail", zap.String("title", title), zap.String("price", price), zap.String("url", product.URL()))
	env.Evidence(ctx, product)
	return nil
}

// addProduct opens the fixture product and adds it to the cart. Every step
// after the page load is optional.
func addProduct(ctx context.Context, env *Env) (*pages.Product, error) {
	product := env.Product(env.Fixture.Product)
	if err := product.Goto(ctx); err != nil {
		return nil, err
	}
	if err := product.VerifyLoaded(ctx); err != nil {
		return nil, err
	}

	steps := []func() pages.Check{
		func() pages.Check { return product.SelectSize(ctx, env.Fixture.Size) },
		func() pages.Check { return product.SetQuantity(ctx, 1) },
		func() pages.Check { return product.AddToCart(ctx) },
	}
	for _, step := range steps {
		if err := env.Soft(product.Name(), step()); err != nil {
			return nil, err
		}
	}
	return product, nil
}

func addToCart(ctx context.Context, env *Env) error {
	product, err := addProduct(ctx, env)
	if err != nil {
		return err
	}

	count, check := product.CartBadgeCount(ctx)
	if check.OK() && count == 0 {
		check = pages.Check{Name: check.Name, Outcome: pages.SoftFail, Detail: "badge shows no items"}
	}
	if err := env.Soft(product.Name(), check); err != nil {
		return err
	}
	env.Logger.Info("added to cart", zap.Int("badge", count))
	env.Evidence(ctx, product)
	return nil
}

func cartDirect(ctx context.Context, env *Env) error {
	if err := env.Cart.Goto(ctx); err != nil {
		return err
	}
	if err := env.Cart.VerifyLoaded(ctx); err != nil {
		return err
	}
	env.Logger.Info("cart loaded", zap.Bool("empty", env.Cart.IsEmpty(ctx)))
	env.Evidence(ctx, env.Cart)
	return nil
}

func checkoutFlow(ctx context.Context, env *Env) error {
	if _, err := addProduct(ctx, env); err != nil {
		return err
	}

	if err := env.Cart.Goto(ctx); err != nil {
		return err
	}
	if err := env.Cart.VerifyLoaded(ctx); err != nil {
		return err
	}
	if env.Cart.IsEmpty(ctx) {
		return &pages.VerificationError{Page: env.Cart.Name(), Check: "cart contents", Detail: "cart is empty, nothing to check out"}
	}
	if err := env.Cart.ProceedToCheckout(ctx); err != nil {
		return err
	}

	checkout := env.Checkout
	if err := checkout.VerifyLoaded(ctx); err != nil {
		return err
	}
	check, err := checkout.SignIn(ctx, env.Fixture.Email, env.Fixture.Password)
	if err != nil {
		return err
	}
	if err := env.Soft(checkout.Name(), check); err != nil {
		return err
	}
	if err := checkout.SubmitPayment(ctx, env.Fixture.Card); err != nil {
		return err
	}

	outcome, err := checkout.AwaitOutcome(ctx)
	if err != nil {
		return err
	}
	if !outcome.Authorised {
		return &pages.VerificationError{
			Page:   checkout.Name(),
			Check:  "payment",
			Detail: fmt.Sprintf("order %s not authorised: %s", outcome.Reference, outcome.Reason),
		}
	}
	env.Logger.Info("order placed", zap.String("reference", outcome.Reference))
	env.Evidence(ctx, checkout)
	return nil
}

func variantFallback(ctx context.Context, env *Env) error {
	product := env.Product(env.Fixture.FallbackProduct)
	if err := product.Goto(ctx); err != nil {
		return err
	}
	if err := product.VerifyLoaded(ctx); err != nil {
		return err
	}

	check := product.SelectSize(ctx, env.Fixture.Size)
	if !check.OK() {
		return check.Hard(product.Name())
	}
	env.Logger.Info("variant selected", zap.String("pattern", check.Detail), zap.String("url", product.URL()))

	if err := env.Soft(product.Name(), product.AddToCart(ctx)); err != nil {
		return err
	}
	env.Evidence(ctx, product)
	return nil
}
