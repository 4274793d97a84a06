package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/models"
	"github.com/adyen/storesmoke/internal/services"
)

// ProductHandler handles the product page requests
type ProductHandler struct {
	renderer *Renderer
	catalog  services.Catalog
	carts    services.CartService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(renderer *Renderer, catalog services.Catalog, carts services.CartService) *ProductHandler {
	return &ProductHandler{renderer: renderer, catalog: catalog, carts: carts}
}

// ProductData represents the data for the product template
type ProductData struct {
	Product  models.Product
	Selected string
	Added    bool
	Error    string
}

// CanAdd reports whether the add-to-cart control is enabled.
func (d ProductData) CanAdd() bool {
	return !d.Product.HasVariants() || d.Selected != ""
}

// ServeHTTP handles the GET /products/{slug} request
func (h *ProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	product, ok := h.catalog.Product(r.PathValue("slug"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := ProductData{
		Product: product,
		Added:   r.URL.Query().Get("added") == "1",
		Error:   r.URL.Query().Get("error"),
	}
	// sold-out variants cannot be selected
	if v, ok := product.Variant(r.URL.Query().Get("variant")); ok && !v.SoldOut {
		data.Selected = v.ID
	}

	h.renderer.Render(w, http.StatusOK, "product.html", View{
		Title:     product.Name,
		CartCount: h.carts.Cart(ShopperID(r)).Count(),
		Content:   data,
	})
}

// AddToCartHandler handles the POST /cart/add form
type AddToCartHandler struct {
	carts  services.CartService
	logger *zap.Logger
}

// NewAddToCartHandler creates a new add-to-cart handler
func NewAddToCartHandler(carts services.CartService, logger *zap.Logger) *AddToCartHandler {
	return &AddToCartHandler{carts: carts, logger: logger}
}

// ServeHTTP adds the posted product to the shopper's cart and redirects back
// to the product page.
func (h *AddToCartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	slug := r.PostForm.Get("slug")
	variantID := r.PostForm.Get("variant")
	quantity := 1
	if q := r.PostForm.Get("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			redirectWithError(w, r, "/products/"+url.PathEscape(slug), url.Values{"variant": {variantID}}, models.ErrInvalidQuantity)
			return
		}
		quantity = n
	}

	cart, err := h.carts.AddItem(ShopperID(r), slug, variantID, quantity)
	if err != nil {
		h.logger.Info("add to cart rejected", zap.String("slug", slug), zap.String("variant", variantID), zap.Error(err))
		redirectWithError(w, r, "/products/"+url.PathEscape(slug), url.Values{"variant": {variantID}}, err)
		return
	}

	h.logger.Debug("added to cart", zap.String("slug", slug), zap.String("variant", variantID), zap.Int("cart_count", cart.Count()))

	query := url.Values{"added": {"1"}}
	if variantID != "" {
		query.Set("variant", variantID)
	}
	http.Redirect(w, r, "/products/"+url.PathEscape(slug)+"?"+query.Encode(), http.StatusSeeOther)
}
