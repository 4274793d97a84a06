package handlers

import (
	"context"
	"testing/fstest"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/models"
	"github.com/adyen/storesmoke/internal/services"
)

// testPages are minimal templates exposing the data each handler renders
var testPages = fstest.MapFS{
	"layout.html":       {Data: []byte(`<title>{{.Title}}</title><span id="count">{{.CartCount}}</span>{{template "content" .Content}}`)},
	"home.html":         {Data: []byte(`{{define "content"}}{{range .Products}}<li>{{.Name}}</li>{{end}}{{end}}`)},
	"product.html":      {Data: []byte(`{{define "content"}}<h1>{{.Product.Name}}</h1> selected={{.Selected}} canAdd={{.CanAdd}} added={{.Added}} error={{.Error}}{{end}}`)},
	"cart.html":         {Data: []byte(`{{define "content"}}items={{.Cart.Count}} empty={{.Cart.IsEmpty}}{{end}}`)},
	"checkout.html":     {Data: []byte(`{{define "content"}}signedIn={{.SignedIn}} email={{.Email}} error={{.Error}}{{end}}`)},
	"confirmation.html": {Data: []byte(`{{define "content"}}{{.Order.Reference}} {{.Status}} {{money .Order.Amount .Order.Currency}}{{end}}`)},
	"failure.html":      {Data: []byte(`{{define "content"}}<h1>Payment Failed</h1> {{.OrderReference}} {{.Reason}} {{.Message}}{{end}}`)},
	"broken.html":       {Data: []byte(`{{define "content"}}{{.Missing.Field}}{{end}}`)},
}

func testRenderer() *Renderer {
	return NewRenderer(testPages, zap.NewNop())
}

func testCatalog() *services.StaticCatalog {
	return services.NewCatalog([]models.Product{
		{
			Slug:       "classic-tee",
			Name:       "Classic Tee",
			PriceCents: 2500,
			Currency:   "EUR",
			Variants: []models.Variant{
				{ID: "tee-m", Label: "M", Size: "M"},
				{ID: "tee-xl", Label: "XL", Size: "XL", SoldOut: true},
			},
		},
		{Slug: "gift-card", Name: "Gift Card", PriceCents: 5000, Currency: "EUR"},
	})
}

// MockPaymentService is a mock implementation of PaymentService for testing
type MockPaymentService struct {
	PayFunc func(context.Context, string, models.Card) (*services.PaymentResult, error)
	Cards   []models.Card
}

func (m *MockPaymentService) Pay(ctx context.Context, shopperID string, card models.Card) (*services.PaymentResult, error) {
	m.Cards = append(m.Cards, card)
	if m.PayFunc != nil {
		return m.PayFunc(ctx, shopperID, card)
	}
	return &services.PaymentResult{
		Order:      &models.Order{Reference: "ORDER-123"},
		ResultCode: services.ResultAuthorised,
		Status:     models.OrderStatusAuthorized,
	}, nil
}

// testCart returns a cart holding n gift cards
func testCart(n int) *models.Cart {
	cart := &models.Cart{ID: "shopper-1"}
	if n > 0 {
		cart.Lines = []models.CartLine{{Slug: "gift-card", Name: "Gift Card", Quantity: n, UnitPrice: 5000, Currency: "EUR"}}
	}
	return cart
}
