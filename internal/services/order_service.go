package services

import (
	"fmt"

	"github.com/adyen/storesmoke/internal/models"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	CreateOrder(order *models.Order) error
	GetOrderByReference(reference string) (*models.Order, error)
	UpdateOrderStatus(reference, status, pspReference string) error
}

// OrderService handles order business logic
type OrderService interface {
	PlaceOrder(cart *models.Cart, email string) (*models.Order, error)
	GetOrderByReference(reference string) (*models.Order, error)
	UpdateOrderStatus(reference, status, pspReference string) error
}

// OrderServiceImpl implements OrderService
type OrderServiceImpl struct {
	orderRepo OrderRepository
}

// NewOrderService creates a new order service
func NewOrderService(orderRepo OrderRepository) OrderService {
	return &OrderServiceImpl{
		orderRepo: orderRepo,
	}
}

// PlaceOrder turns the cart into a pending order
func (s *OrderServiceImpl) PlaceOrder(cart *models.Cart, email string) (*models.Order, error) {
	order, err := models.NewOrder(cart, email)
	if err != nil {
		return nil, fmt.Errorf("invalid order: %w", err)
	}

	if err := s.orderRepo.CreateOrder(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

// GetOrderByReference retrieves an order by its reference
func (s *OrderServiceImpl) GetOrderByReference(reference string) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByReference(reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// UpdateOrderStatus moves the order through the domain state machine and
// persists the result
func (s *OrderServiceImpl) UpdateOrderStatus(reference, status, pspReference string) error {
	order, err := s.orderRepo.GetOrderByReference(reference)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}

	switch models.OrderStatus(status) {
	case models.OrderStatusAuthorized:
		err = order.Authorize(pspReference)
	case models.OrderStatusFailed:
		err = order.Fail()
	case models.OrderStatusCancelled:
		err = order.Cancel()
	case models.OrderStatusPending:
		return nil
	default:
		return fmt.Errorf("invalid order status: %s", status)
	}
	if err != nil {
		return err
	}

	if err := s.orderRepo.UpdateOrderStatus(reference, string(order.Status), order.PSPReference); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return nil
}
