package order_repo

import (
	"context"

	"github.com/myosher1/sales-delivery/internal/sales/domain"
)

type OrderRepository interface {
	// CreateOrderWithLines persists the order header and all of its lines
	// in a single transaction.
	CreateOrderWithLines(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetAllOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, order *domain.Order) error
}
