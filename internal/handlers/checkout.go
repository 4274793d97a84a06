package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/models"
	"github.com/adyen/storesmoke/internal/services"
)

// CheckoutHandler handles the checkout page. Shoppers sign in first and are
// then shown the payment form.
type CheckoutHandler struct {
	renderer *Renderer
	carts    services.CartService
	accounts services.AccountService
}

// CheckoutData represents the data passed to the checkout template
type CheckoutData struct {
	Cart     *models.Cart
	SignedIn bool
	Email    string
	Error    string
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(renderer *Renderer, carts services.CartService, accounts services.AccountService) *CheckoutHandler {
	return &CheckoutHandler{renderer: renderer, carts: carts, accounts: accounts}
}

// ServeHTTP handles the GET /checkout request
func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	shopperID := ShopperID(r)
	cart := h.carts.Cart(shopperID)
	email, signedIn := h.accounts.Email(shopperID)

	h.renderer.Render(w, http.StatusOK, "checkout.html", View{
		Title:     "Checkout",
		CartCount: cart.Count(),
		Content: CheckoutData{
			Cart:     cart,
			SignedIn: signedIn,
			Email:    email,
			Error:    r.URL.Query().Get("error"),
		},
	})
}

// SignInHandler handles the POST /checkout/sign-in form
type SignInHandler struct {
	accounts services.AccountService
	logger   *zap.Logger
}

// NewSignInHandler creates a new sign-in handler
func NewSignInHandler(accounts services.AccountService, logger *zap.Logger) *SignInHandler {
	return &SignInHandler{accounts: accounts, logger: logger}
}

// ServeHTTP signs the shopper in and returns to the checkout page
func (h *SignInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	if err := h.accounts.SignIn(ShopperID(r), r.PostForm.Get("email"), r.PostForm.Get("password")); err != nil {
		h.logger.Info("sign in rejected", zap.Error(err))
		redirectWithError(w, r, "/checkout", nil, err)
		return
	}
	http.Redirect(w, r, "/checkout", http.StatusSeeOther)
}

// PayHandler handles the POST /checkout/pay form
type PayHandler struct {
	paymentService services.PaymentService
	logger         *zap.Logger
}

// NewPayHandler creates a new pay handler
func NewPayHandler(paymentService services.PaymentService, logger *zap.Logger) *PayHandler {
	return &PayHandler{paymentService: paymentService, logger: logger}
}

// ServeHTTP validates the card, pays for the cart and redirects to the
// confirmation or failure page.
func (h *PayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	card, err := models.NewCard(
		r.PostForm.Get("cardNumber"),
		r.PostForm.Get("expiryDate"),
		r.PostForm.Get("securityCode"),
		r.PostForm.Get("holderName"),
	)
	if err != nil {
		redirectWithError(w, r, "/checkout", nil, err)
		return
	}

	result, err := h.paymentService.Pay(r.Context(), ShopperID(r), card)
	switch {
	case errors.Is(err, services.ErrSignInRequired):
		redirectWithError(w, r, "/checkout", nil, err)
		return
	case errors.Is(err, models.ErrEmptyCart):
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	case err != nil:
		h.logger.Error("payment failed", zap.Error(err))
		http.Error(w, "Failed to process payment", http.StatusInternalServerError)
		return
	}

	if result.Status != models.OrderStatusAuthorized {
		query := url.Values{"reference": {result.Order.Reference}, "reason": {result.ResultCode}}
		http.Redirect(w, r, "/order/failed?"+query.Encode(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/order/confirmation?reference="+url.QueryEscape(result.Order.Reference), http.StatusSeeOther)
}
