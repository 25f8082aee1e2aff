package stock_repo

import (
	"context"

	"github.com/myosher1/sales-delivery/internal/inventory/domain"
)

// StockRepository serializes reserve/release per product with a row-level
// lock, so concurrent reservations for the same product cannot both read
// the same quantity. Each mutation appends a Movement in the same
// transaction as the quantity change.
type StockRepository interface {
	GetStock(ctx context.Context, productID string) (*domain.Stock, error)
	ReserveStock(ctx context.Context, productID string, quantity int, orderID string) (*domain.Movement, error)
	ReleaseStock(ctx context.Context, productID string, quantity int, orderID string) (*domain.Movement, error)
	GetMovementsByProductID(ctx context.Context, productID string) ([]*domain.Movement, error)
}
