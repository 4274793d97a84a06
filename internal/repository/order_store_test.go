package repository

import (
	"errors"
	"testing"

	"github.com/adyen/storesmoke/internal/models"
)

func TestMemoryOrderRepository(t *testing.T) {
	repo := NewMemoryOrderRepository()
	order := &models.Order{ID: "1", Reference: "ORDER-1", Amount: 2500, Currency: "EUR", Status: models.OrderStatusPending}

	// GIVEN a stored order
	if err := repo.CreateOrder(order); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if order.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	// WHEN the same reference is stored again
	err := repo.CreateOrder(&models.Order{Reference: "ORDER-1"})

	// THEN it is rejected
	if !errors.Is(err, ErrDuplicateOrder) {
		t.Errorf("CreateOrder() duplicate error = %v, want ErrDuplicateOrder", err)
	}

	if err := repo.UpdateOrderStatus("ORDER-1", string(models.OrderStatusAuthorized), "PSP-1"); err != nil {
		t.Fatalf("UpdateOrderStatus() error = %v", err)
	}
	got, err := repo.GetOrderByReference("ORDER-1")
	if err != nil {
		t.Fatalf("GetOrderByReference() error = %v", err)
	}
	if got.Status != models.OrderStatusAuthorized || got.PSPReference != "PSP-1" {
		t.Errorf("got status %s psp %s", got.Status, got.PSPReference)
	}
}

func TestMemoryOrderRepository_NotFound(t *testing.T) {
	repo := NewMemoryOrderRepository()

	if _, err := repo.GetOrderByReference("missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("GetOrderByReference() error = %v, want ErrOrderNotFound", err)
	}
	if err := repo.UpdateOrderStatus("missing", "authorized", ""); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("UpdateOrderStatus() error = %v, want ErrOrderNotFound", err)
	}
}
