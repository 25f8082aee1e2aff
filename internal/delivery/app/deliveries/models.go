package deliveries

import "time"

type UpdateDeliveryStatusRequest struct {
	Status string `json:"status"`
}

type DeliveryResponse struct {
	ID              string    `json:"id"`
	OrderID         string    `json:"orderId"`
	CustomerID      string    `json:"customerId"`
	ShippingAddress string    `json:"shippingAddress"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
