package stock

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/inventory/domain"
	"github.com/myosher1/sales-delivery/internal/inventory/repository/stock_repo"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock for reservation")
	ErrProductNotFound   = errors.New("product not found")
	ErrNoItems           = errors.New("at least one item is required")
)

const (
	reasonNotFound     = "not found"
	reasonInactive     = "inactive"
	reasonInsufficient = "insufficient stock"
)

type StockService interface {
	CheckAvailability(ctx context.Context, items []Item) ([]ItemResult, error)
	Reserve(ctx context.Context, orderID string, items []Item) ([]MovementResult, error)
	Release(ctx context.Context, orderID string, items []Item) ([]MovementResult, error)
}

type stockService struct {
	stockRepo stock_repo.StockRepository
	logger    *zap.Logger
}

func NewStockService(stockRepo stock_repo.StockRepository, logger *zap.Logger) StockService {
	return &stockService{stockRepo: stockRepo, logger: logger}
}

// CheckAvailability is a pure read: one missing or short product does not
// abort the batch, it just comes back unavailable with a reason.
func (s *stockService) CheckAvailability(ctx context.Context, items []Item) ([]ItemResult, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	results := make([]ItemResult, 0, len(items))
	for _, item := range items {
		record, err := s.stockRepo.GetStock(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				results = append(results, ItemResult{ProductID: item.ProductID, Available: false, Reason: reasonNotFound})
				continue
			}
			s.logger.Error("Failed to read stock record during availability check",
				zap.String("product_id", item.ProductID), zap.Error(err))
			return nil, fmt.Errorf("failed to check availability for product %s: %w", item.ProductID, err)
		}

		current := record.Quantity
		switch {
		case !record.Active:
			results = append(results, ItemResult{ProductID: item.ProductID, Available: false, CurrentStock: &current, Reason: reasonInactive})
		case record.Quantity < item.Quantity:
			results = append(results, ItemResult{ProductID: item.ProductID, Available: false, CurrentStock: &current, Reason: reasonInsufficient})
		default:
			results = append(results, ItemResult{ProductID: item.ProductID, Available: true, CurrentStock: &current})
		}
	}
	return results, nil
}

// Reserve decrements stock for every item, appending a movement per item.
// The first item that cannot be reserved fails the whole call; items
// already decremented in the same call are not rolled back.
func (s *stockService) Reserve(ctx context.Context, orderID string, items []Item) ([]MovementResult, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	results := make([]MovementResult, 0, len(items))
	for _, item := range items {
		movement, err := s.stockRepo.ReserveStock(ctx, item.ProductID, item.Quantity, orderID)
		if err != nil {
			s.logger.Warn("Stock reservation failed",
				zap.String("order_id", orderID),
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
			if errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, domain.ErrProductInactive) || errors.Is(err, domain.ErrInsufficientStock) {
				return nil, fmt.Errorf("%w: product %s", ErrInsufficientStock, item.ProductID)
			}
			return nil, fmt.Errorf("failed to reserve stock for product %s: %w", item.ProductID, err)
		}
		results = append(results, MovementResult{
			ProductID:     item.ProductID,
			Reserved:      true,
			PreviousStock: movement.PreviousStock,
			NewStock:      movement.NewStock,
		})
		s.logger.Info("Stock reserved",
			zap.String("order_id", orderID),
			zap.String("product_id", item.ProductID),
			zap.Int("previous_stock", movement.PreviousStock),
			zap.Int("new_stock", movement.NewStock))
	}
	return results, nil
}

// Release returns previously reserved stock. A missing product fails the
// whole call; items already released are not rolled back.
func (s *stockService) Release(ctx context.Context, orderID string, items []Item) ([]MovementResult, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	results := make([]MovementResult, 0, len(items))
	for _, item := range items {
		movement, err := s.stockRepo.ReleaseStock(ctx, item.ProductID, item.Quantity, orderID)
		if err != nil {
			s.logger.Warn("Stock release failed",
				zap.String("order_id", orderID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: product %s", ErrProductNotFound, item.ProductID)
			}
			return nil, fmt.Errorf("failed to release stock for product %s: %w", item.ProductID, err)
		}
		results = append(results, MovementResult{
			ProductID:     item.ProductID,
			Reserved:      false,
			PreviousStock: movement.PreviousStock,
			NewStock:      movement.NewStock,
		})
		s.logger.Info("Stock released",
			zap.String("order_id", orderID),
			zap.String("product_id", item.ProductID),
			zap.Int("previous_stock", movement.PreviousStock),
			zap.Int("new_stock", movement.NewStock))
	}
	return results, nil
}
