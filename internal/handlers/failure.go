package handlers

import (
	"net/http"

	"github.com/adyen/storesmoke/internal/services"
)

// FailureHandler handles payment failure page
type FailureHandler struct {
	renderer *Renderer
	carts    services.CartService
}

// NewFailureHandler creates a new failure handler
func NewFailureHandler(renderer *Renderer, carts services.CartService) *FailureHandler {
	return &FailureHandler{renderer: renderer, carts: carts}
}

// FailureData represents the data for the failure template
type FailureData struct {
	OrderReference string
	Reason         string
	Message        string
}

// ServeHTTP handles the failure page request
func (h *FailureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reason := r.URL.Query().Get("reason")
	h.renderer.Render(w, http.StatusOK, "failure.html", View{
		Title:     "Payment failed",
		CartCount: h.carts.Cart(ShopperID(r)).Count(),
		Content: FailureData{
			OrderReference: r.URL.Query().Get("reference"),
			Reason:         reason,
			Message:        getFailureMessage(reason),
		},
	})
}

// getFailureMessage returns a user-friendly message based on the failure reason
func getFailureMessage(reason string) string {
	switch reason {
	case services.ResultRefused:
		return "Your payment was declined. Please check your payment details and try again."
	case services.ResultCancelled:
		return "The payment was cancelled. You can try again when you're ready."
	case services.ResultError:
		return "An error occurred while processing your payment. Please try again."
	default:
		return "We couldn't process your payment. Please try again or contact support."
	}
}
