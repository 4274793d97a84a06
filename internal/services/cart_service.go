package services

import (
	"fmt"
	"sync"

	"github.com/adyen/storesmoke/internal/models"
)

// CartService keeps one cart per shopper.
type CartService interface {
	// Cart returns a copy of the shopper's cart; it is empty for a new shopper.
	Cart(shopperID string) *models.Cart
	AddItem(shopperID, slug, variantID string, quantity int) (*models.Cart, error)
	Clear(shopperID string)
}

// CartServiceImpl implements CartService in memory.
type CartServiceImpl struct {
	catalog Catalog

	mu    sync.Mutex
	carts map[string]*models.Cart
}

func NewCartService(catalog Catalog) *CartServiceImpl {
	return &CartServiceImpl{
		catalog: catalog,
		carts:   map[string]*models.Cart{},
	}
}

func (s *CartServiceImpl) Cart(shopperID string) *models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart, ok := s.carts[shopperID]; ok {
		return cart.Clone()
	}
	return &models.Cart{ID: shopperID}
}

func (s *CartServiceImpl) AddItem(shopperID, slug, variantID string, quantity int) (*models.Cart, error) {
	product, ok := s.catalog.Product(slug)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, slug)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[shopperID]
	if !ok {
		cart = &models.Cart{ID: shopperID}
	}
	if err := cart.Add(product, variantID, quantity); err != nil {
		return nil, fmt.Errorf("failed to add %s to cart: %w", slug, err)
	}
	s.carts[shopperID] = cart
	return cart.Clone(), nil
}

func (s *CartServiceImpl) Clear(shopperID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, shopperID)
}
