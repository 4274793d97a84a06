package handlers

import (
	"net/http"

	"github.com/adyen/storesmoke/internal/models"
	"github.com/adyen/storesmoke/internal/services"
)

// CartHandler renders the shopper's cart
type CartHandler struct {
	renderer *Renderer
	carts    services.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(renderer *Renderer, carts services.CartService) *CartHandler {
	return &CartHandler{renderer: renderer, carts: carts}
}

// CartData represents the data for the cart template
type CartData struct {
	Cart *models.Cart
}

// ServeHTTP handles the GET /cart request
func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cart := h.carts.Cart(ShopperID(r))
	h.renderer.Render(w, http.StatusOK, "cart.html", View{
		Title:     "Your cart",
		CartCount: cart.Count(),
		Content:   CartData{Cart: cart},
	})
}
