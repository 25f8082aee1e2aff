package domain_test

import (
	"errors"
	"testing"

	"github.com/myosher1/sales-delivery/internal/delivery/domain"
)

func newTestDelivery(t *testing.T) *domain.Delivery {
	t.Helper()
	d, err := domain.NewDelivery("delivery-1", "order-1", "customer-1", "1 Main St")
	if err != nil {
		t.Fatalf("failed to create delivery: %v", err)
	}
	return d
}

func TestNewDelivery(t *testing.T) {
	d := newTestDelivery(t)
	if d.Status != domain.DeliveryStatusPending {
		t.Errorf("expected new delivery to be PENDING, got %s", d.Status)
	}

	if _, err := domain.NewDelivery("", "order-1", "customer-1", "addr"); !errors.Is(err, domain.ErrInvalidDeliveryData) {
		t.Errorf("expected ErrInvalidDeliveryData, got: %v", err)
	}
}

func TestTransitionTo(t *testing.T) {
	d := newTestDelivery(t)

	if err := d.TransitionTo(domain.DeliveryStatusDelivered); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Errorf("expected PENDING -> DELIVERED to be rejected, got: %v", err)
	}
	if err := d.TransitionTo(domain.DeliveryStatusInTransit); err != nil {
		t.Fatalf("PENDING -> IN_TRANSIT failed: %v", err)
	}
	if err := d.TransitionTo(domain.DeliveryStatusDelivered); err != nil {
		t.Fatalf("IN_TRANSIT -> DELIVERED failed: %v", err)
	}
	if err := d.TransitionTo(domain.DeliveryStatusFailed); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Errorf("DELIVERED must be terminal, got: %v", err)
	}
}

func TestTransitionTo_FailedFromNonTerminal(t *testing.T) {
	pending := newTestDelivery(t)
	if err := pending.TransitionTo(domain.DeliveryStatusFailed); err != nil {
		t.Errorf("PENDING -> FAILED must be allowed, got: %v", err)
	}

	inTransit := newTestDelivery(t)
	if err := inTransit.TransitionTo(domain.DeliveryStatusInTransit); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if err := inTransit.TransitionTo(domain.DeliveryStatusFailed); err != nil {
		t.Errorf("IN_TRANSIT -> FAILED must be allowed, got: %v", err)
	}
}

func TestParseDeliveryStatus(t *testing.T) {
	if _, err := domain.ParseDeliveryStatus("IN_TRANSIT"); err != nil {
		t.Errorf("expected IN_TRANSIT to parse, got: %v", err)
	}
	if _, err := domain.ParseDeliveryStatus("teleported"); !errors.Is(err, domain.ErrUnknownDeliveryStatus) {
		t.Errorf("expected ErrUnknownDeliveryStatus, got: %v", err)
	}
}
