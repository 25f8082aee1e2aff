// Package messages defines the JSON envelopes exchanged between services
// over the broker. All services unmarshal into these types; the field names
// are the wire contract and must not change without coordinating every
// consumer.
package messages

import "time"

const (
	TypeOrderCreated         = "ORDER_CREATED"
	TypeDeliveryStatusUpdate = "DELIVERY_STATUS_UPDATE"
)

// Item is a product/quantity pair used by stock check, reservation and
// release envelopes.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// StockCheckRequest asks the inventory service whether the listed items are
// available. The reply carries the same correlation id.
type StockCheckRequest struct {
	CorrelationID string `json:"correlationId"`
	Items         []Item `json:"items"`
}

type ItemAvailability struct {
	ProductID    string `json:"productId"`
	Available    bool   `json:"available"`
	CurrentStock *int   `json:"currentStock,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type StockCheckResponse struct {
	CorrelationID    string             `json:"correlationId"`
	Available        bool               `json:"available"`
	Items            []ItemAvailability `json:"items"`
	UnavailableItems []ItemAvailability `json:"unavailableItems,omitempty"`
}

// StockReservation is a one-way request to decrement stock for an order.
type StockReservation struct {
	OrderID string `json:"orderId"`
	Items   []Item `json:"items"`
}

// StockRelease is a one-way request to return previously reserved stock,
// sent when an order is cancelled.
type StockRelease struct {
	OrderID string `json:"orderId"`
	Items   []Item `json:"items"`
}

type OrderCreatedItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// OrderCreated announces a new order to the delivery service.
type OrderCreated struct {
	Type            string             `json:"type"`
	OrderID         string             `json:"orderId"`
	CustomerID      string             `json:"customerId"`
	ShippingAddress string             `json:"shippingAddress"`
	Items           []OrderCreatedItem `json:"items"`
	TotalAmount     float64            `json:"totalAmount"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// DeliveryStatusUpdate notifies the sales service of a delivery status
// change so the order status can follow it.
type DeliveryStatusUpdate struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	Status     string    `json:"status"`
	DeliveryID string    `json:"deliveryId"`
	Timestamp  time.Time `json:"timestamp"`
}
