package domain

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	OrderStatusPendingShipment OrderStatus = "PENDING_SHIPMENT"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

var (
	ErrInvalidOrderData        = errors.New("invalid order data")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrUnknownOrderStatus      = errors.New("unknown order status")
)

type OrderLine struct {
	ProductID string
	Quantity  int
	UnitPrice float64
	LineTotal float64
}

// Order is created atomically with its lines and never deleted. After
// creation the only mutation is the status field, driven by delivery
// status propagation or the explicit status endpoint.
type Order struct {
	ID              string
	CustomerID      string
	ShippingAddress string
	TotalAmount     float64
	Currency        string
	Status          OrderStatus
	Lines           []OrderLine
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewOrder(id, customerID, shippingAddress, currency string, lines []OrderLine) (*Order, error) {
	if id == "" || customerID == "" || shippingAddress == "" || currency == "" || len(lines) == 0 {
		return nil, ErrInvalidOrderData
	}

	total := 0.0
	for i := range lines {
		if lines[i].ProductID == "" || lines[i].Quantity <= 0 || lines[i].UnitPrice < 0 {
			return nil, ErrInvalidOrderData
		}
		lines[i].LineTotal = float64(lines[i].Quantity) * lines[i].UnitPrice
		total += lines[i].LineTotal
	}

	now := time.Now()
	return &Order{
		ID:              id,
		CustomerID:      customerID,
		ShippingAddress: shippingAddress,
		TotalAmount:     total,
		Currency:        currency,
		Status:          OrderStatusPendingShipment,
		Lines:           lines,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusPendingShipment, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", ErrUnknownOrderStatus
	}
}

// Transition enforces the nominal lifecycle: PENDING_SHIPMENT -> SHIPPED ->
// DELIVERED, with CANCELLED reachable only from PENDING_SHIPMENT. Used by
// the explicit status endpoint; delivery propagation bypasses it via
// OverwriteStatus.
func (o *Order) Transition(target OrderStatus) error {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPendingShipment: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:         {OrderStatusDelivered},
	}
	for _, next := range allowed[o.Status] {
		if next == target {
			o.Status = target
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrInvalidStatusTransition
}

// OverwriteStatus applies a delivery-derived status with last-message-wins
// semantics: no fencing, no transition check.
func (o *Order) OverwriteStatus(target OrderStatus) {
	o.Status = target
	o.UpdatedAt = time.Now()
}
