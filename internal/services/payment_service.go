package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adyen/storesmoke/internal/models"
)

// PaymentService handles payment-related business logic
type PaymentService interface {
	Pay(ctx context.Context, shopperID string, card models.Card) (*PaymentResult, error)
}

// PaymentResult is the outcome of paying for a shopper's cart.
type PaymentResult struct {
	Order         *models.Order
	ResultCode    string
	PSPReference  string
	RefusalReason string
	Status        models.OrderStatus
}

// PaymentServiceImpl implements PaymentService
type PaymentServiceImpl struct {
	gateway      PaymentGateway
	orderService OrderService
	carts        CartService
	accounts     AccountService
	logger       *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(gateway PaymentGateway, orderService OrderService, carts CartService, accounts AccountService, logger *zap.Logger) PaymentService {
	return &PaymentServiceImpl{
		gateway:      gateway,
		orderService: orderService,
		carts:        carts,
		accounts:     accounts,
		logger:       logger,
	}
}

// Pay places an order for the shopper's cart and authorises it. The cart is
// emptied only when the payment is authorised.
func (s *PaymentServiceImpl) Pay(ctx context.Context, shopperID string, card models.Card) (*PaymentResult, error) {
	email, ok := s.accounts.Email(shopperID)
	if !ok {
		return nil, ErrSignInRequired
	}

	cart := s.carts.Cart(shopperID)
	order, err := s.orderService.PlaceOrder(cart, email)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	order.CardLast4 = card.Last4()

	s.logger.Info("created order",
		zap.String("reference", order.Reference),
		zap.Int("items", order.ItemCount()),
		zap.String("amount", order.GetFormattedAmount()))

	resp, err := s.gateway.Authorise(ctx, &AuthorisationRequest{
		Reference: order.Reference,
		Amount:    Amount{Currency: order.Currency, Value: order.Amount},
		Card:      card,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to authorise payment: %w", err)
	}

	status := mapResultCodeToStatus(resp.ResultCode)
	s.logger.Info("payment processed",
		zap.String("reference", order.Reference),
		zap.String("result_code", resp.ResultCode),
		zap.String("psp_reference", resp.PSPReference),
		zap.String("status", string(status)))

	if err := s.orderService.UpdateOrderStatus(order.Reference, string(status), resp.PSPReference); err != nil {
		// the shopper still gets the gateway verdict
		s.logger.Warn("failed to update order status", zap.String("reference", order.Reference), zap.Error(err))
	}
	order.Status = status
	order.ResultCode = resp.ResultCode
	order.PSPReference = resp.PSPReference

	if status == models.OrderStatusAuthorized {
		s.carts.Clear(shopperID)
	}

	return &PaymentResult{
		Order:         order,
		ResultCode:    resp.ResultCode,
		PSPReference:  resp.PSPReference,
		RefusalReason: resp.RefusalReason,
		Status:        status,
	}, nil
}

// mapResultCodeToStatus maps a gateway result code to our order status
func mapResultCodeToStatus(resultCode string) models.OrderStatus {
	switch resultCode {
	case ResultAuthorised:
		return models.OrderStatusAuthorized
	case ResultRefused, ResultError:
		return models.OrderStatusFailed
	case ResultCancelled:
		return models.OrderStatusCancelled
	default:
		return models.OrderStatusPending
	}
}
