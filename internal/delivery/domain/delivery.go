package domain

import (
	"errors"
	"time"
)

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
)

var (
	ErrInvalidDeliveryData     = errors.New("invalid delivery data")
	ErrUnknownDeliveryStatus   = errors.New("unknown delivery status")
	ErrInvalidStatusTransition = errors.New("invalid delivery status transition")
)

// Delivery is created when an order announcement arrives and advances
// PENDING -> IN_TRANSIT -> DELIVERED, with FAILED reachable from any
// non-terminal state.
type Delivery struct {
	ID              string
	OrderID         string
	CustomerID      string
	ShippingAddress string
	Status          DeliveryStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewDelivery(id, orderID, customerID, shippingAddress string) (*Delivery, error) {
	if id == "" || orderID == "" || customerID == "" {
		return nil, ErrInvalidDeliveryData
	}
	now := time.Now()
	return &Delivery{
		ID:              id,
		OrderID:         orderID,
		CustomerID:      customerID,
		ShippingAddress: shippingAddress,
		Status:          DeliveryStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	switch DeliveryStatus(s) {
	case DeliveryStatusPending, DeliveryStatusInTransit, DeliveryStatusDelivered, DeliveryStatusFailed:
		return DeliveryStatus(s), nil
	default:
		return "", ErrUnknownDeliveryStatus
	}
}

func (d *Delivery) TransitionTo(target DeliveryStatus) error {
	allowed := map[DeliveryStatus][]DeliveryStatus{
		DeliveryStatusPending:   {DeliveryStatusInTransit, DeliveryStatusFailed},
		DeliveryStatusInTransit: {DeliveryStatusDelivered, DeliveryStatusFailed},
	}
	for _, next := range allowed[d.Status] {
		if next == target {
			d.Status = target
			d.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrInvalidStatusTransition
}
