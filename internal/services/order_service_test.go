package services

import (
	"errors"
	"testing"

	"github.com/adyen/storesmoke/internal/models"
)

// MockOrderRepository is a mock implementation of OrderRepository for testing
type MockOrderRepository struct {
	CreateOrderFunc         func(*models.Order) error
	GetOrderByReferenceFunc func(string) (*models.Order, error)
	UpdateOrderStatusFunc   func(string, string, string) error
}

func (m *MockOrderRepository) CreateOrder(order *models.Order) error {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(order)
	}
	return nil
}

func (m *MockOrderRepository) GetOrderByReference(reference string) (*models.Order, error) {
	if m.GetOrderByReferenceFunc != nil {
		return m.GetOrderByReferenceFunc(reference)
	}
	return &models.Order{Reference: reference}, nil
}

func (m *MockOrderRepository) UpdateOrderStatus(reference, status, pspReference string) error {
	if m.UpdateOrderStatusFunc != nil {
		return m.UpdateOrderStatusFunc(reference, status, pspReference)
	}
	return nil
}

func testCart() *models.Cart {
	return &models.Cart{
		ID: "shopper-1",
		Lines: []models.CartLine{
			{Slug: "classic-tee", Name: "Classic Tee", VariantID: "tee-m", Quantity: 2, UnitPrice: 2500, Currency: "EUR"},
		},
	}
}

func TestOrderService_PlaceOrder(t *testing.T) {
	tests := []struct {
		name      string
		cart      *models.Cart
		mockError error
		wantErr   bool
	}{
		{
			name: "successful order creation",
			cart: testCart(),
		},
		{
			name:    "empty cart",
			cart:    &models.Cart{ID: "shopper-1"},
			wantErr: true,
		},
		{
			name:      "repository error",
			cart:      testCart(),
			mockError: errors.New("database error"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockOrderRepository{
				CreateOrderFunc: func(order *models.Order) error {
					if tt.mockError != nil {
						return tt.mockError
					}
					if order.Reference == "" {
						t.Error("Order reference should not be empty")
					}
					if order.Amount != 5000 {
						t.Errorf("Expected amount 5000, got %d", order.Amount)
					}
					if order.Currency != "EUR" {
						t.Errorf("Expected currency EUR, got %s", order.Currency)
					}
					if order.Status != models.OrderStatusPending {
						t.Errorf("Expected status %s, got %s", models.OrderStatusPending, order.Status)
					}
					if order.Email != "shopper@example.com" {
						t.Errorf("Expected email shopper@example.com, got %s", order.Email)
					}
					return nil
				},
			}

			service := NewOrderService(mockRepo)
			order, err := service.PlaceOrder(tt.cart, "shopper@example.com")

			if (err != nil) != tt.wantErr {
				t.Errorf("PlaceOrder() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && order == nil {
				t.Error("Expected order to be returned, got nil")
			}
		})
	}
}

func TestOrderService_GetOrderByReference(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		mockOrder *models.Order
		mockError error
		wantErr   bool
	}{
		{
			name:      "successful retrieval",
			reference: "ORDER-123",
			mockOrder: &models.Order{
				Reference: "ORDER-123",
				Amount:    100,
			},
			mockError: nil,
			wantErr:   false,
		},
		{
			name:      "order not found",
			reference: "ORDER-999",
			mockOrder: nil,
			mockError: errors.New("order not found"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockOrderRepository{
				GetOrderByReferenceFunc: func(reference string) (*models.Order, error) {
					if tt.mockError != nil {
						return nil, tt.mockError
					}
					return tt.mockOrder, nil
				},
			}

			service := NewOrderService(mockRepo)
			order, err := service.GetOrderByReference(tt.reference)

			if (err != nil) != tt.wantErr {
				t.Errorf("GetOrderByReference() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && order == nil {
				t.Error("Expected order to be returned, got nil")
			}
		})
	}
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	tests := []struct {
		name         string
		reference    string
		status       string
		pspReference string
		mockError    error
		wantErr      bool
	}{
		{
			name:         "successful update - authorized",
			reference:    "ORDER-123",
			status:       string(models.OrderStatusAuthorized),
			pspReference: "PSP-123",
			mockError:    nil,
			wantErr:      false,
		},
		{
			name:         "successful update - failed",
			reference:    "ORDER-123",
			status:       string(models.OrderStatusFailed),
			pspReference: "PSP-456",
			mockError:    nil,
			wantErr:      false,
		},
		{
			name:         "pending is a no-op",
			reference:    "ORDER-123",
			status:       string(models.OrderStatusPending),
			pspReference: "",
			mockError:    errors.New("must not be called"),
			wantErr:      false,
		},
		{
			name:         "invalid status",
			reference:    "ORDER-123",
			status:       "invalid_status",
			pspReference: "PSP-123",
			mockError:    nil,
			wantErr:      true,
		},
		{
			name:         "repository error",
			reference:    "ORDER-123",
			status:       string(models.OrderStatusAuthorized),
			pspReference: "PSP-123",
			mockError:    errors.New("database error"),
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockOrderRepository{
				GetOrderByReferenceFunc: func(reference string) (*models.Order, error) {
					return &models.Order{
						Reference: reference,
						Status:    models.OrderStatusPending,
					}, nil
				},
				UpdateOrderStatusFunc: func(reference, status, pspReference string) error {
					if tt.mockError != nil {
						return tt.mockError
					}
					return nil
				},
			}

			service := NewOrderService(mockRepo)
			err := service.UpdateOrderStatus(tt.reference, tt.status, tt.pspReference)

			if (err != nil) != tt.wantErr {
				t.Errorf("UpdateOrderStatus() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
