package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/adyen/storesmoke/internal/models"
)

func testCatalog() *StaticCatalog {
	return NewCatalog([]models.Product{
		{
			Slug:       "classic-tee",
			Name:       "Classic Tee",
			PriceCents: 2500,
			Currency:   "EUR",
			Variants:   []models.Variant{{ID: "tee-m", Label: "M", Size: "M"}},
		},
		{Slug: "gift-card", Name: "Gift Card", PriceCents: 5000, Currency: "EUR"},
	})
}

func TestCatalog_Product(t *testing.T) {
	catalog := testCatalog()

	if _, ok := catalog.Product("gift-card"); !ok {
		t.Error("Expected gift-card to be found")
	}
	if _, ok := catalog.Product("missing"); ok {
		t.Error("Expected missing product to be absent")
	}

	products := catalog.Products()
	products[0].Name = "changed"
	if p, _ := catalog.Product("classic-tee"); p.Name != "Classic Tee" {
		t.Error("Products() must return a copy")
	}
}

func TestCartService_AddItem(t *testing.T) {
	tests := []struct {
		name      string
		slug      string
		variantID string
		quantity  int
		wantErr   error
		wantCount int
	}{
		{name: "product with variant", slug: "classic-tee", variantID: "tee-m", quantity: 2, wantCount: 2},
		{name: "product without variants", slug: "gift-card", quantity: 1, wantCount: 1},
		{name: "unknown product", slug: "missing", quantity: 1, wantErr: ErrUnknownProduct},
		{name: "missing variant", slug: "classic-tee", quantity: 1, wantErr: models.ErrVariantRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewCartService(testCatalog())

			cart, err := service.AddItem("shopper-1", tt.slug, tt.variantID, tt.quantity)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("AddItem() error = %v, wantErr %v", err, tt.wantErr)
				}
				if !service.Cart("shopper-1").IsEmpty() {
					t.Error("Expected cart to stay empty")
				}
				return
			}
			if err != nil {
				t.Fatalf("AddItem() unexpected error = %v", err)
			}
			if cart.Count() != tt.wantCount {
				t.Errorf("Expected count %d, got %d", tt.wantCount, cart.Count())
			}
			if service.Cart("shopper-1").Count() != tt.wantCount {
				t.Error("Expected the cart to be stored")
			}
		})
	}
}

func TestCartService_CartsAreIsolated(t *testing.T) {
	service := NewCartService(testCatalog())
	if _, err := service.AddItem("shopper-1", "gift-card", "", 1); err != nil {
		t.Fatalf("AddItem() unexpected error = %v", err)
	}

	if !service.Cart("shopper-2").IsEmpty() {
		t.Error("Expected another shopper's cart to be empty")
	}

	// mutating a returned cart does not change the stored one
	cart := service.Cart("shopper-1")
	cart.Lines[0].Quantity = 50
	if service.Cart("shopper-1").Count() != 1 {
		t.Error("Cart() must return a copy")
	}

	service.Clear("shopper-1")
	if !service.Cart("shopper-1").IsEmpty() {
		t.Error("Expected cart to be empty after Clear")
	}
}

func TestCartService_ConcurrentAdds(t *testing.T) {
	service := NewCartService(testCatalog())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.AddItem("shopper-1", "gift-card", "", 1); err != nil {
				t.Errorf("AddItem() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := service.Cart("shopper-1").Count(); got != 20 {
		t.Errorf("Expected 20 items, got %d", got)
	}
}

func TestAccountService_SignIn(t *testing.T) {
	tests := []struct {
		name     string
		accounts map[string]string
		email    string
		password string
		wantErr  bool
	}{
		{name: "any account when none configured", email: "Shopper@Example.com", password: "secret"},
		{name: "malformed email", email: "shopper", password: "secret", wantErr: true},
		{name: "empty password", email: "shopper@example.com", wantErr: true},
		{
			name:     "configured account",
			accounts: map[string]string{"shopper@example.com": "smoke-test"},
			email:    "shopper@example.com",
			password: "smoke-test",
		},
		{
			name:     "wrong password",
			accounts: map[string]string{"shopper@example.com": "smoke-test"},
			email:    "shopper@example.com",
			password: "guess",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewAccountService(tt.accounts)

			err := service.SignIn("shopper-1", tt.email, tt.password)

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Errorf("SignIn() error = %v, want %v", err, ErrInvalidCredentials)
				}
				if _, ok := service.Email("shopper-1"); ok {
					t.Error("Expected shopper to stay signed out")
				}
				return
			}
			if err != nil {
				t.Fatalf("SignIn() unexpected error = %v", err)
			}
			email, ok := service.Email("shopper-1")
			if !ok || email != "shopper@example.com" {
				t.Errorf("Expected signed-in email shopper@example.com, got %q (%v)", email, ok)
			}
		})
	}
}
