package handlers

import (
	"net/http"

	"github.com/adyen/storesmoke/internal/models"
	"github.com/adyen/storesmoke/internal/services"
)

// HomeHandler renders the product listing
type HomeHandler struct {
	renderer *Renderer
	catalog  services.Catalog
	carts    services.CartService
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(renderer *Renderer, catalog services.Catalog, carts services.CartService) *HomeHandler {
	return &HomeHandler{renderer: renderer, catalog: catalog, carts: carts}
}

// HomeData represents the data for the home template
type HomeData struct {
	Products []models.Product
}

// ServeHTTP handles the GET / request
func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.renderer.Render(w, http.StatusOK, "home.html", View{
		Title:     "Shop",
		CartCount: h.carts.Cart(ShopperID(r)).Count(),
		Content:   HomeData{Products: h.catalog.Products()},
	})
}
