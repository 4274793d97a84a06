package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents valid order states
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusAuthorized OrderStatus = "authorized"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order is a placed cart awaiting or holding a payment outcome.
type Order struct {
	ID           string
	Reference    string
	Lines        []CartLine
	Amount       int64
	Currency     string
	Status       OrderStatus
	Email        string
	CardLast4    string
	PSPReference string
	ResultCode   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Domain errors
var (
	ErrEmptyCart               = errors.New("cannot place an order for an empty cart")
	ErrInvalidAmount           = errors.New("order amount must be positive")
	ErrInvalidCurrency         = errors.New("currency code must be 3 characters")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// NewOrder snapshots cart into a pending order.
func NewOrder(cart *Cart, email string) (*Order, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	amount := cart.Total()
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	currency := cart.Currency()
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}

	id := uuid.New()
	now := time.Now()
	return &Order{
		ID:        id.String(),
		Reference: "ORDER-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:10]),
		Lines:     append([]CartLine(nil), cart.Lines...),
		Amount:    amount,
		Currency:  currency,
		Status:    OrderStatusPending,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Authorize marks the order as authorized with a PSP reference
func (o *Order) Authorize(pspReference string) error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("%w: cannot authorize order with status %s", ErrInvalidStatusTransition, o.Status)
	}
	if pspReference == "" {
		return errors.New("PSP reference cannot be empty")
	}

	o.Status = OrderStatusAuthorized
	o.PSPReference = pspReference
	o.UpdatedAt = time.Now()
	return nil
}

// Fail marks the order as failed
func (o *Order) Fail() error {
	if o.Status == OrderStatusAuthorized || o.Status == OrderStatusCancelled {
		return fmt.Errorf("%w: cannot fail a %s order", ErrInvalidStatusTransition, o.Status)
	}

	o.Status = OrderStatusFailed
	o.UpdatedAt = time.Now()
	return nil
}

// Cancel marks the order as cancelled
func (o *Order) Cancel() error {
	if o.Status == OrderStatusAuthorized {
		return fmt.Errorf("%w: cannot cancel an authorized order", ErrInvalidStatusTransition)
	}

	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) IsAuthorized() bool {
	return o.Status == OrderStatusAuthorized
}

// ItemCount returns the number of units ordered.
func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// GetFormattedAmount returns the amount formatted with currency
func (o *Order) GetFormattedAmount() string {
	return FormatAmount(o.Amount, o.Currency)
}
