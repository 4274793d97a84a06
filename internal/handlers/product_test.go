package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/services"
)

func TestProductHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		slug           string
		query          string
		expectedStatus int
		checkContent   []string
	}{
		{
			name:           "variant required before adding",
			method:         http.MethodGet,
			slug:           "classic-tee",
			expectedStatus: http.StatusOK,
			checkContent:   []string{"<h1>Classic Tee</h1>", "selected= canAdd=false"},
		},
		{
			name:           "selected variant enables add",
			method:         http.MethodGet,
			slug:           "classic-tee",
			query:          "?variant=tee-m&added=1",
			expectedStatus: http.StatusOK,
			checkContent:   []string{"selected=tee-m canAdd=true added=true"},
		},
		{
			name:           "sold-out variant is not selected",
			method:         http.MethodGet,
			slug:           "classic-tee",
			query:          "?variant=tee-xl",
			expectedStatus: http.StatusOK,
			checkContent:   []string{"selected= canAdd=false"},
		},
		{
			name:           "product without variants",
			method:         http.MethodGet,
			slug:           "gift-card",
			query:          "?error=oops",
			expectedStatus: http.StatusOK,
			checkContent:   []string{"canAdd=true", "error=oops"},
		},
		{
			name:           "unknown product",
			method:         http.MethodGet,
			slug:           "missing",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "method not allowed - POST",
			method:         http.MethodPost,
			slug:           "gift-card",
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := testCatalog()
			handler := NewProductHandler(testRenderer(), catalog, services.NewCartService(catalog))

			req := httptest.NewRequest(tt.method, "/products/"+tt.slug+tt.query, nil)
			req.SetPathValue("slug", tt.slug)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			body := w.Body.String()
			for _, content := range tt.checkContent {
				if !strings.Contains(body, content) {
					t.Errorf("expected response to contain '%s', got: %s", content, body)
				}
			}
		})
	}
}

func TestAddToCartHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name             string
		method           string
		form             url.Values
		expectedStatus   int
		expectedLocation string
		expectedCount    int
	}{
		{
			name:             "adds the selected variant",
			method:           http.MethodPost,
			form:             url.Values{"slug": {"classic-tee"}, "variant": {"tee-m"}, "quantity": {"2"}},
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/products/classic-tee?added=1&variant=tee-m",
			expectedCount:    2,
		},
		{
			name:             "quantity defaults to one",
			method:           http.MethodPost,
			form:             url.Values{"slug": {"gift-card"}},
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/products/gift-card?added=1",
			expectedCount:    1,
		},
		{
			name:             "missing variant",
			method:           http.MethodPost,
			form:             url.Values{"slug": {"classic-tee"}},
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/products/classic-tee?error=failed+to+add+classic-tee+to+cart%3A+a+variant+must+be+selected&variant=",
		},
		{
			name:             "invalid quantity",
			method:           http.MethodPost,
			form:             url.Values{"slug": {"gift-card"}, "quantity": {"many"}},
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/products/gift-card?error=quantity+must+be+between+1+and+99&variant=",
		},
		{
			name:           "method not allowed - GET",
			method:         http.MethodGet,
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carts := services.NewCartService(testCatalog())
			handler := NewAddToCartHandler(carts, zap.NewNop())

			req := httptest.NewRequest(tt.method, "/cart/add", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if location := w.Header().Get("Location"); location != tt.expectedLocation {
				t.Errorf("expected redirect to %s, got %s", tt.expectedLocation, location)
			}
			if count := carts.Cart("").Count(); count != tt.expectedCount {
				t.Errorf("expected %d items in cart, got %d", tt.expectedCount, count)
			}
		})
	}
}
