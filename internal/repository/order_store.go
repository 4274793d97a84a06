package repository

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adyen/storesmoke/internal/models"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order reference already exists")
)

// MemoryOrderRepository keeps the demo storefront's orders in memory.
// Stored orders are shared with callers, like rows behind an ORM session.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
}

// NewMemoryOrderRepository creates an empty order repository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: map[string]*models.Order{}}
}

// CreateOrder stores a new order
func (r *MemoryOrderRepository) CreateOrder(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.Reference]; exists {
		return fmt.Errorf("failed to create order %s: %w", order.Reference, ErrDuplicateOrder)
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	r.orders[order.Reference] = order
	return nil
}

// GetOrderByReference retrieves an order by its reference
func (r *MemoryOrderRepository) GetOrderByReference(reference string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[reference]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrderStatus updates the status and PSP reference of an order
func (r *MemoryOrderRepository) UpdateOrderStatus(reference, status, pspReference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[reference]
	if !ok {
		return ErrOrderNotFound
	}
	order.Status = models.OrderStatus(status)
	order.PSPReference = pspReference
	order.UpdatedAt = time.Now()
	return nil
}
