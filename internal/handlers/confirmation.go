package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/models"
	"github.com/adyen/storesmoke/internal/repository"
	"github.com/adyen/storesmoke/internal/services"
)

// ConfirmationHandler handles order confirmation page
type ConfirmationHandler struct {
	renderer     *Renderer
	orderService services.OrderService
	carts        services.CartService
	logger       *zap.Logger
}

// NewConfirmationHandler creates a new confirmation handler
func NewConfirmationHandler(renderer *Renderer, orderService services.OrderService, carts services.CartService, logger *zap.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{
		renderer:     renderer,
		orderService: orderService,
		carts:        carts,
		logger:       logger,
	}
}

// ConfirmationData represents the data for the confirmation template
type ConfirmationData struct {
	Order  *models.Order
	Status string
}

// ServeHTTP handles the confirmation page request
func (h *ConfirmationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reference := r.URL.Query().Get("reference")
	if reference == "" {
		http.Error(w, "Missing order reference", http.StatusBadRequest)
		return
	}

	order, err := h.orderService.GetOrderByReference(reference)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("failed to load order", zap.String("reference", reference), zap.Error(err))
		http.Error(w, "Failed to load order", http.StatusInternalServerError)
		return
	}

	// Check if payment was successful
	if !order.IsAuthorized() {
		failureURL := fmt.Sprintf("/order/failed?reference=%s&reason=%s",
			url.QueryEscape(order.Reference), url.QueryEscape(order.ResultCode))
		http.Redirect(w, r, failureURL, http.StatusSeeOther)
		return
	}

	h.renderer.Render(w, http.StatusOK, "confirmation.html", View{
		Title:     "Order confirmed",
		CartCount: h.carts.Cart(ShopperID(r)).Count(),
		Content:   ConfirmationData{Order: order, Status: "Authorized"},
	})
}
