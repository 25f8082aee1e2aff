package orders

import "time"

type OrderItemRequest struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type CreateOrderRequest struct {
	CustomerID      string             `json:"customerId"`
	ShippingAddress string             `json:"shippingAddress"`
	Currency        string             `json:"currency"`
	Items           []OrderItemRequest `json:"items"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type OrderLineResponse struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	CustomerID      string              `json:"customerId"`
	ShippingAddress string              `json:"shippingAddress"`
	TotalAmount     float64             `json:"totalAmount"`
	Currency        string              `json:"currency"`
	Status          string              `json:"status"`
	Items           []OrderLineResponse `json:"items"`
	CreatedAt       time.Time           `json:"createdAt"`
}
