package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/models"
)

// MockGateway is a mock implementation of PaymentGateway for testing
type MockGateway struct {
	AuthoriseFunc func(context.Context, *AuthorisationRequest) (*AuthorisationResponse, error)
}

func (m *MockGateway) Authorise(ctx context.Context, req *AuthorisationRequest) (*AuthorisationResponse, error) {
	if m.AuthoriseFunc != nil {
		return m.AuthoriseFunc(ctx, req)
	}
	return &AuthorisationResponse{ResultCode: ResultAuthorised, PSPReference: "PSP-123"}, nil
}

// MockOrderService is a mock implementation of OrderService for testing
type MockOrderService struct {
	PlaceOrderFunc          func(*models.Cart, string) (*models.Order, error)
	GetOrderByReferenceFunc func(string) (*models.Order, error)
	UpdateOrderStatusFunc   func(string, string, string) error
}

func (m *MockOrderService) PlaceOrder(cart *models.Cart, email string) (*models.Order, error) {
	if m.PlaceOrderFunc != nil {
		return m.PlaceOrderFunc(cart, email)
	}
	return &models.Order{
		Reference: "ORDER-123",
		Amount:    cart.Total(),
		Currency:  cart.Currency(),
		Lines:     cart.Lines,
		Email:     email,
		Status:    models.OrderStatusPending,
	}, nil
}

func (m *MockOrderService) GetOrderByReference(reference string) (*models.Order, error) {
	if m.GetOrderByReferenceFunc != nil {
		return m.GetOrderByReferenceFunc(reference)
	}
	return &models.Order{Reference: reference, Status: models.OrderStatusPending}, nil
}

func (m *MockOrderService) UpdateOrderStatus(reference, status, pspReference string) error {
	if m.UpdateOrderStatusFunc != nil {
		return m.UpdateOrderStatusFunc(reference, status, pspReference)
	}
	return nil
}

// MockCartService is a mock implementation of CartService for testing
type MockCartService struct {
	CartValue *models.Cart
	Cleared   []string
}

func (m *MockCartService) Cart(shopperID string) *models.Cart {
	if m.CartValue == nil {
		return &models.Cart{ID: shopperID}
	}
	return m.CartValue.Clone()
}

func (m *MockCartService) AddItem(shopperID, slug, variantID string, quantity int) (*models.Cart, error) {
	return nil, errors.New("not implemented")
}

func (m *MockCartService) Clear(shopperID string) {
	m.Cleared = append(m.Cleared, shopperID)
}

// MockAccountService is a mock implementation of AccountService for testing
type MockAccountService struct {
	SignedIn map[string]string
}

func (m *MockAccountService) SignIn(shopperID, email, password string) error {
	return errors.New("not implemented")
}

func (m *MockAccountService) Email(shopperID string) (string, bool) {
	email, ok := m.SignedIn[shopperID]
	return email, ok
}

func TestPaymentService_Pay(t *testing.T) {
	tests := []struct {
		name        string
		signedIn    bool
		resultCode  string
		gatewayErr  error
		orderErr    error
		updateErr   error
		wantErr     error
		wantAnyErr  bool
		wantStatus  models.OrderStatus
		wantCleared bool
	}{
		{
			name:        "authorised payment clears the cart",
			signedIn:    true,
			resultCode:  ResultAuthorised,
			wantStatus:  models.OrderStatusAuthorized,
			wantCleared: true,
		},
		{
			name:       "refused payment keeps the cart",
			signedIn:   true,
			resultCode: ResultRefused,
			wantStatus: models.OrderStatusFailed,
		},
		{
			name:       "cancelled payment",
			signedIn:   true,
			resultCode: ResultCancelled,
			wantStatus: models.OrderStatusCancelled,
		},
		{
			name:       "unknown result code stays pending",
			signedIn:   true,
			resultCode: "Received",
			wantStatus: models.OrderStatusPending,
		},
		{
			name:        "status update failure does not fail the payment",
			signedIn:    true,
			resultCode:  ResultAuthorised,
			updateErr:   errors.New("database error"),
			wantStatus:  models.OrderStatusAuthorized,
			wantCleared: true,
		},
		{
			name:    "not signed in",
			wantErr: ErrSignInRequired,
		},
		{
			name:       "order creation fails",
			signedIn:   true,
			orderErr:   errors.New("database error"),
			wantAnyErr: true,
		},
		{
			name:       "gateway fails",
			signedIn:   true,
			gatewayErr: errors.New("connection reset"),
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &MockAccountService{SignedIn: map[string]string{}}
			if tt.signedIn {
				accounts.SignedIn["shopper-1"] = "shopper@example.com"
			}
			carts := &MockCartService{CartValue: testCart()}
			orders := &MockOrderService{
				UpdateOrderStatusFunc: func(reference, status, pspReference string) error {
					return tt.updateErr
				},
			}
			if tt.orderErr != nil {
				orders.PlaceOrderFunc = func(*models.Cart, string) (*models.Order, error) {
					return nil, tt.orderErr
				}
			}
			gateway := &MockGateway{
				AuthoriseFunc: func(ctx context.Context, req *AuthorisationRequest) (*AuthorisationResponse, error) {
					if tt.gatewayErr != nil {
						return nil, tt.gatewayErr
					}
					if req.Amount.Value != 5000 || req.Amount.Currency != "EUR" {
						t.Errorf("Unexpected amount %+v", req.Amount)
					}
					return &AuthorisationResponse{ResultCode: tt.resultCode, PSPReference: "PSP-42"}, nil
				},
			}

			service := NewPaymentService(gateway, orders, carts, accounts, zap.NewNop())
			card := models.Card{Number: "4111111111111111", ExpiryDate: "03/30", SecurityCode: "737"}

			result, err := service.Pay(context.Background(), "shopper-1", card)

			if tt.wantErr != nil || tt.wantAnyErr {
				if err == nil {
					t.Fatal("Expected an error, got nil")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("Pay() error = %v, want %v", err, tt.wantErr)
				}
				if len(carts.Cleared) != 0 {
					t.Error("Cart must not be cleared when payment fails")
				}
				return
			}
			if err != nil {
				t.Fatalf("Pay() unexpected error = %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("Expected status %s, got %s", tt.wantStatus, result.Status)
			}
			if result.Order.CardLast4 != "1111" {
				t.Errorf("Expected card last4 1111, got %s", result.Order.CardLast4)
			}
			if result.PSPReference != "PSP-42" {
				t.Errorf("Expected PSP reference PSP-42, got %s", result.PSPReference)
			}
			if cleared := len(carts.Cleared) == 1; cleared != tt.wantCleared {
				t.Errorf("Expected cart cleared = %v, got %v", tt.wantCleared, cleared)
			}
		})
	}
}

func TestMapResultCodeToStatus(t *testing.T) {
	tests := []struct {
		resultCode string
		expected   models.OrderStatus
	}{
		{ResultAuthorised, models.OrderStatusAuthorized},
		{ResultRefused, models.OrderStatusFailed},
		{ResultError, models.OrderStatusFailed},
		{ResultCancelled, models.OrderStatusCancelled},
		{"Pending", models.OrderStatusPending},
		{"", models.OrderStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.resultCode, func(t *testing.T) {
			if got := mapResultCodeToStatus(tt.resultCode); got != tt.expected {
				t.Errorf("mapResultCodeToStatus(%q) = %s, want %s", tt.resultCode, got, tt.expected)
			}
		})
	}
}

func TestTestCardGateway_Authorise(t *testing.T) {
	tests := []struct {
		number     string
		resultCode string
	}{
		{"4111111111111111", ResultAuthorised},
		{"4000000000000002", ResultRefused},
		{"4000000000000003", ResultCancelled},
		{"4000000000000119", ResultError},
		{"4111111111111112", ResultRefused},
	}

	gateway := NewTestCardGateway()
	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			resp, err := gateway.Authorise(context.Background(), &AuthorisationRequest{
				Reference: "ORDER-1",
				Card:      models.Card{Number: tt.number},
			})
			if err != nil {
				t.Fatalf("Authorise() unexpected error = %v", err)
			}
			if resp.ResultCode != tt.resultCode {
				t.Errorf("Expected %s, got %s", tt.resultCode, resp.ResultCode)
			}
			if len(resp.PSPReference) != 16 {
				t.Errorf("Expected 16 character PSP reference, got %q", resp.PSPReference)
			}
		})
	}
}

func TestTestCardGateway_AuthoriseHonoursContext(t *testing.T) {
	gateway := &TestCardGateway{Latency: 2 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gateway.Authorise(ctx, &AuthorisationRequest{Card: models.Card{Number: "4111111111111111"}})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
