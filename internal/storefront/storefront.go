// Package storefront is a small server-rendered shop used as a smoke-test
// target. Pages are read from a file system on every request, so removing a
// page file takes its route down until the file is restored.
package storefront

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/handlers"
	"github.com/adyen/storesmoke/internal/models"
	"github.com/adyen/storesmoke/internal/repository"
	"github.com/adyen/storesmoke/internal/services"
)

//go:embed pages/*.html
var embedded embed.FS

// Pages returns the built-in page templates.
func Pages() fs.FS {
	sub, err := fs.Sub(embedded, "pages")
	if err != nil {
		panic(err)
	}
	return sub
}

// ExtractPages writes the built-in page templates into dir. Existing files
// are overwritten.
func ExtractPages(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create pages directory: %w", err)
	}
	pages := Pages()
	entries, err := fs.ReadDir(pages, ".")
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}
	for _, entry := range entries {
		data, err := fs.ReadFile(pages, entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read page %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Name()), data, 0o644); err != nil {
			return fmt.Errorf("failed to write page %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// DefaultCatalog is the demo product range. It covers a sized product, a
// product whose variants carry no size data (one sold out), and a product
// without variants.
func DefaultCatalog() []models.Product {
	return []models.Product{
		{
			Slug:        "classic-tee",
			Name:        "Classic Tee",
			Description: "Heavyweight organic cotton t-shirt.",
			PriceCents:  2500,
			Currency:    "EUR",
			Variants: []models.Variant{
				{ID: "tee-s", Label: "S", Size: "S"},
				{ID: "tee-m", Label: "M", Size: "M"},
				{ID: "tee-l", Label: "L", Size: "L"},
				{ID: "tee-xl", Label: "XL", Size: "XL", SoldOut: true},
			},
		},
		{
			Slug:        "canvas-tote",
			Name:        "Canvas Tote",
			Description: "Sturdy tote bag with inner pocket.",
			PriceCents:  1800,
			Currency:    "EUR",
			Variants: []models.Variant{
				{ID: "tote-natural", Label: "Natural", SoldOut: true},
				{ID: "tote-black", Label: "Black"},
			},
		},
		{
			Slug:        "gift-card",
			Name:        "Gift Card",
			Description: "Digital gift card delivered by email.",
			PriceCents:  5000,
			Currency:    "EUR",
		},
	}
}

// Options configures New. Zero values select the defaults.
type Options struct {
	Catalog []models.Product
	// Accounts maps email to password. Empty accepts any well-formed sign-in.
	Accounts       map[string]string
	GatewayLatency time.Duration
	Orders         services.OrderRepository
	Logger         *zap.Logger
}

// New wires the storefront services and handlers over the page templates
// in pages.
func New(pages fs.FS, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	products := opts.Catalog
	if products == nil {
		products = DefaultCatalog()
	}
	orders := opts.Orders
	if orders == nil {
		orders = repository.NewMemoryOrderRepository()
	}

	catalog := services.NewCatalog(products)
	carts := services.NewCartService(catalog)
	accounts := services.NewAccountService(opts.Accounts)
	orderService := services.NewOrderService(orders)
	gateway := &services.TestCardGateway{Latency: opts.GatewayLatency}
	paymentService := services.NewPaymentService(gateway, orderService, carts, accounts, logger)

	renderer := handlers.NewRenderer(pages, logger)

	mux := http.NewServeMux()
	mux.Handle("/{$}", handlers.NewHomeHandler(renderer, catalog, carts))
	mux.Handle("/products/{slug}", handlers.NewProductHandler(renderer, catalog, carts))
	mux.Handle("/cart", handlers.NewCartHandler(renderer, carts))
	mux.Handle("/cart/add", handlers.NewAddToCartHandler(carts, logger))
	mux.Handle("/checkout", handlers.NewCheckoutHandler(renderer, carts, accounts))
	mux.Handle("/checkout/sign-in", handlers.NewSignInHandler(accounts, logger))
	mux.Handle("/checkout/pay", handlers.NewPayHandler(paymentService, logger))
	mux.Handle("/order/confirmation", handlers.NewConfirmationHandler(renderer, orderService, carts, logger))
	mux.Handle("/order/failed", handlers.NewFailureHandler(renderer, carts))

	return handlers.WithShopper(mux)
}
