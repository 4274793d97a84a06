package pages

import (
	"fmt"

	"github.com/adyen/storesmoke/internal/locator"
)

// Chains list the storefront's test IDs first, then class names, then text.

var (
	homeProductCard = locator.New("product card",
		`[data-testid="product-card"]`,
		`.product-card`,
		`.product-item`,
		`li:has(a[href*="/products/"])`,
	)
	homeMainContent = locator.New("main content",
		`main#content`,
		`#MainContent`,
		`[role="main"]`,
		`main`,
	)
	homeProductLink = locator.New("product link",
		`[data-testid="product-card"] a[href*="/products/"]`,
		`.product-card a.product-link`,
		`.product-card a`,
		`a[href*="/products/"]`,
	)
	homeProductName = locator.New("product name",
		`[data-testid="product-card"] .product-card-title`,
		`.product-card h2`,
		`.product-card h3`,
		`.product-item .title`,
	)
)

var (
	productTitle = locator.New("product title",
		`[data-testid="product-title"]`,
		`h1.product-title`,
		`.product-info h1`,
		`main h1`,
		`h1`,
	)
	productInfo = locator.New("product info",
		`[data-testid="product-detail"] .product-info`,
		`.product-info`,
		`.product-detail`,
		`.product__info-container`,
	)
	productPrice = locator.New("product price",
		`[data-testid="product-price"]`,
		`.product-info .price`,
		`.product-detail .price`,
		`.price`,
	)
	productQuantity = locator.New("quantity",
		`[data-testid="quantity"]`,
		`input[name="quantity"]`,
		`#quantity`,
		`input[type="number"]`,
	)
	productAddToCart = locator.New("add to cart",
		`[data-testid="add-to-cart"]`,
		`button.add-to-cart`,
		`form[action*="/cart/add"] button[type="submit"]`,
		`button[name="add"]`,
		`button:has-text("Add to cart")`,
	)
	productAdded = locator.New("added confirmation",
		`[data-testid="added-to-cart"]`,
		`.flash-success`,
		`[role="status"]:has-text("Added")`,
		`text=Added to cart`,
	)
	cartBadge = locator.New("cart badge",
		`[data-testid="cart-count"]`,
		`.cart-badge`,
		`.cart-count`,
		`.cart-link .count`,
	)
)

// FirstAvailableVariant names the last size pattern, which ignores the
// requested size.
const FirstAvailableVariant = "first available variant"

type sizePattern struct {
	name  string
	chain func(size string) locator.Chain
	// selectOption patterns pick from a <select> instead of clicking.
	selectOption bool
}

// sizePatterns are tried in order until one interaction succeeds.
var sizePatterns = []sizePattern{
	{
		name: "size attribute",
		chain: func(size string) locator.Chain {
			return locator.New("size attribute",
				fmt.Sprintf(`[data-size=%q]`, size),
				fmt.Sprintf(`[data-option-size=%q]`, size),
				fmt.Sprintf(`[data-value=%q][data-option="size"]`, size),
			)
		},
	},
	{
		name: "size button",
		chain: func(size string) locator.Chain {
			return locator.New("size button",
				fmt.Sprintf(`button.size-option:has-text(%q)`, size),
				fmt.Sprintf(`.size-selector button:has-text(%q)`, size),
				fmt.Sprintf(`button[aria-label*="size"]:has-text(%q)`, size),
			)
		},
	},
	{
		name: "size group option",
		chain: func(size string) locator.Chain {
			return locator.New("size group option",
				fmt.Sprintf(`.size-selector .variant-option:has-text(%q)`, size),
				fmt.Sprintf(`[class*="size"] [class*="option"]:has-text(%q)`, size),
				fmt.Sprintf(`fieldset[name*="size"] label:has-text(%q)`, size),
			)
		},
	},
	{
		name: "variant text",
		chain: func(size string) locator.Chain {
			return locator.New("variant text",
				fmt.Sprintf(`.variant-option:has-text(%q)`, size),
				fmt.Sprintf(`[data-variant]:has-text(%q)`, size),
				fmt.Sprintf(`.variant-picker a:has-text(%q)`, size),
			)
		},
	},
	{
		name:         "size select",
		selectOption: true,
		chain: func(string) locator.Chain {
			return locator.New("size select",
				`select[name*="size"]`,
				`select[name*="variant"]`,
				`select.variant-select`,
				`select[data-option="size"]`,
			)
		},
	},
	{
		name: FirstAvailableVariant,
		chain: func(string) locator.Chain {
			return locator.New(FirstAvailableVariant,
				`[data-testid="variant-picker"] .variant-option:not(.sold-out):not([aria-disabled="true"])`,
				`.variant-option:not(.sold-out):not([aria-disabled="true"])`,
				`[data-variant]:not([aria-disabled="true"]):not([disabled])`,
				`.variant-picker a`,
			)
		},
	},
}

var (
	cartContainer = locator.New("cart container",
		`[data-testid="cart"]`,
		`section.cart`,
		`.cart`,
		`#cart`,
	)
	cartEmpty = locator.New("empty cart message",
		`[data-testid="cart-empty"]`,
		`.cart-empty`,
		`.cart__empty-text`,
		`text=Your cart is empty`,
	)
	cartItemCount = locator.New("cart item count",
		`[data-testid="cart-item-count"]`,
		`.cart-item-count`,
		`.cart-summary .count`,
	)
	cartItemName = locator.New("cart item name",
		`[data-testid="cart-item-name"]`,
		`.cart-item-name`,
		`.cart-item .name`,
		`.cart-items li .title`,
	)
	cartCheckout = locator.New("checkout button",
		`[data-testid="checkout-button"]`,
		`a.checkout-button`,
		`a[href$="/checkout"]`,
		`button:has-text("Checkout")`,
		`text=Proceed to checkout`,
	)
)

var (
	checkoutSignInForm = locator.New("sign-in form",
		`form#sign-in`,
		`[data-testid="sign-in-form"]`,
		`form[action*="sign-in"]`,
		`form[action*="login"]`,
	)
	checkoutPaymentForm = locator.New("payment form",
		`form#payment`,
		`[data-testid="payment-form"]`,
		`form[action*="pay"]`,
	)
	checkoutHeading = locator.New("checkout heading",
		`h1.checkout-title`,
		`[data-testid="checkout"] h1`,
		`h1:has-text("Checkout")`,
	)
	checkoutEmail = locator.New("email",
		`#email`,
		`input[name="email"]`,
		`input[type="email"]`,
	)
	checkoutPassword = locator.New("password",
		`#password`,
		`input[name="password"]`,
		`input[type="password"]`,
	)
	checkoutSignInButton = locator.New("sign-in button",
		`[data-testid="sign-in-button"]`,
		`button.sign-in-button`,
		`form#sign-in button[type="submit"]`,
		`button:has-text("Sign in")`,
	)
	checkoutCardNumber = locator.New("card number",
		`#cardNumber`,
		`input[name="cardNumber"]`,
		`input[autocomplete="cc-number"]`,
	)
	checkoutExpiry = locator.New("expiry date",
		`#expiryDate`,
		`input[name="expiryDate"]`,
		`input[autocomplete="cc-exp"]`,
	)
	checkoutSecurityCode = locator.New("security code",
		`#securityCode`,
		`input[name="securityCode"]`,
		`input[autocomplete="cc-csc"]`,
	)
	checkoutHolderName = locator.New("holder name",
		`#holderName`,
		`input[name="holderName"]`,
		`input[autocomplete="cc-name"]`,
	)
	checkoutPayButton = locator.New("pay button",
		`[data-testid="pay-button"]`,
		`button.pay-button`,
		`form#payment button[type="submit"]`,
		`button:has-text("Pay")`,
	)
	checkoutError = locator.New("checkout error",
		`[data-testid="checkout-error"]`,
		`.checkout .flash-error`,
		`[role="alert"]`,
	)
	orderConfirmation = locator.New("order confirmation",
		`[data-testid="order-confirmation"]`,
		`.confirmation-title`,
		`text=Thank you for your order`,
	)
	orderFailure = locator.New("order failure",
		`[data-testid="order-failure"]`,
		`.failure-title`,
		`text=Payment Failed`,
	)
	orderReference = locator.New("order reference",
		`[data-testid="order-reference"]`,
		`.order-reference`,
	)
	orderFailureReason = locator.New("failure reason",
		`[data-testid="failure-reason"]`,
		`.failure-reason`,
		`.failure-message`,
	)
)
