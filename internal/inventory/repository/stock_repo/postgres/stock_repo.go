package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/inventory/domain"
	"github.com/myosher1/sales-delivery/internal/inventory/repository/stock_repo"
	"github.com/myosher1/sales-delivery/internal/util"
)

type pgStockRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewStockRepository(db *sql.DB, l *zap.Logger) stock_repo.StockRepository {
	return &pgStockRepository{db: db, logger: l}
}

func (r *pgStockRepository) GetStock(ctx context.Context, productID string) (*domain.Stock, error) {
	stock := &domain.Stock{}
	query := `SELECT product_id, quantity, active, updated_at FROM stock WHERE product_id = $1`
	err := r.db.QueryRowContext(ctx, query, productID).Scan(&stock.ProductID, &stock.Quantity, &stock.Active, &stock.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		r.logger.Error("Failed to get stock record", zap.String("product_id", productID), zap.Error(err))
		return nil, fmt.Errorf("failed to get stock for product %s: %w", productID, err)
	}
	return stock, nil
}

func (r *pgStockRepository) ReserveStock(ctx context.Context, productID string, quantity int, orderID string) (*domain.Movement, error) {
	return r.applyMovement(ctx, productID, -quantity, domain.ReasonReserved, orderID, true)
}

func (r *pgStockRepository) ReleaseStock(ctx context.Context, productID string, quantity int, orderID string) (*domain.Movement, error) {
	return r.applyMovement(ctx, productID, quantity, domain.ReasonReleased, orderID, false)
}

// applyMovement locks the stock row, adjusts the quantity and appends the
// movement in one transaction. The row lock is what keeps two concurrent
// reservations for the same product from both reading the same quantity.
func (r *pgStockRepository) applyMovement(ctx context.Context, productID string, delta int, reason, orderID string, requireActive bool) (movement *domain.Movement, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction for stock movement", zap.String("product_id", productID), zap.Error(err))
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Panic during stock movement transaction, rolling back", zap.String("product_id", productID))
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
			if err != nil {
				r.logger.Error("Failed to commit stock movement transaction", zap.String("product_id", productID), zap.Error(err))
			}
		}
	}()

	var currentQuantity int
	var active bool
	lockQuery := `SELECT quantity, active FROM stock WHERE product_id = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, lockQuery, productID).Scan(&currentQuantity, &active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrProductNotFound
			return nil, err
		}
		return nil, fmt.Errorf("tx failed to lock stock row for product %s: %w", productID, err)
	}

	if requireActive && !active {
		err = domain.ErrProductInactive
		return nil, err
	}
	if currentQuantity+delta < 0 {
		err = domain.ErrInsufficientStock
		return nil, err
	}

	movement, err = domain.NewMovement(util.GenerateUUID(), productID, delta, currentQuantity, reason, orderID)
	if err != nil {
		return nil, err
	}

	updateQuery := `UPDATE stock SET quantity = $2, updated_at = $3 WHERE product_id = $1`
	_, err = tx.ExecContext(ctx, updateQuery, productID, movement.NewStock, movement.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("tx failed to update stock for product %s: %w", productID, err)
	}

	movementQuery := `INSERT INTO stock_movements (id, product_id, delta, previous_stock, new_stock, reason, order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = tx.ExecContext(ctx, movementQuery, movement.ID, movement.ProductID, movement.Delta,
		movement.PreviousStock, movement.NewStock, movement.Reason, movement.OrderID, movement.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("tx failed to append stock movement for product %s: %w", productID, err)
	}

	r.logger.Debug("Stock movement applied",
		zap.String("product_id", productID),
		zap.Int("delta", delta),
		zap.Int("new_stock", movement.NewStock),
		zap.String("order_id", orderID))
	return movement, err
}

func (r *pgStockRepository) GetMovementsByProductID(ctx context.Context, productID string) ([]*domain.Movement, error) {
	var movements []*domain.Movement
	query := `SELECT id, product_id, delta, previous_stock, new_stock, reason, order_id, created_at
		FROM stock_movements WHERE product_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		r.logger.Error("Failed to query stock movements", zap.String("product_id", productID), zap.Error(err))
		return nil, fmt.Errorf("failed to get movements for product %s: %w", productID, err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &domain.Movement{}
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Delta, &m.PreviousStock, &m.NewStock, &m.Reason, &m.OrderID, &m.CreatedAt); err != nil {
			r.logger.Error("Failed to scan stock movement row", zap.String("product_id", productID), zap.Error(err))
			return nil, fmt.Errorf("failed to scan movement row: %w", err)
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Rows error for stock movements", zap.String("product_id", productID), zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return movements, nil
}
