package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/sales/domain"
	"github.com/myosher1/sales-delivery/internal/sales/repository/order_repo"
)

type pgOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sql.DB, l *zap.Logger) order_repo.OrderRepository {
	return &pgOrderRepository{db: db, logger: l}
}

func (r *pgOrderRepository) CreateOrderWithLines(ctx context.Context, order *domain.Order) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction for order creation", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Panic during order creation transaction, rolling back", zap.String("order_id", order.ID))
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			r.logger.Warn("Rolling back order creation transaction due to error", zap.String("order_id", order.ID), zap.Error(err))
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
			if err != nil {
				r.logger.Error("Failed to commit order creation transaction", zap.String("order_id", order.ID), zap.Error(err))
			}
		}
	}()

	orderQuery := `INSERT INTO orders (id, customer_id, shipping_address, total_amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = tx.ExecContext(ctx, orderQuery, order.ID, order.CustomerID, order.ShippingAddress,
		order.TotalAmount, order.Currency, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("tx failed to create order: %w", err)
	}

	lineQuery := `INSERT INTO order_lines (order_id, product_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5)`
	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, lineQuery, order.ID, line.ProductID, line.Quantity, line.UnitPrice, line.LineTotal)
		if err != nil {
			return fmt.Errorf("tx failed to create order line for product %s: %w", line.ProductID, err)
		}
	}
	r.logger.Debug("Order and lines inserted in transaction", zap.String("order_id", order.ID), zap.Int("line_count", len(order.Lines)))

	return err
}

func (r *pgOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}
	query := `SELECT id, customer_id, shipping_address, total_amount, currency, status, created_at, updated_at
		FROM orders WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&order.ID, &order.CustomerID, &order.ShippingAddress,
		&order.TotalAmount, &order.Currency, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get order by ID", zap.String("order_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}

	lineQuery := `SELECT product_id, quantity, unit_price, line_total FROM order_lines WHERE order_id = $1`
	rows, err := r.db.QueryContext(ctx, lineQuery, id)
	if err != nil {
		r.logger.Error("Failed to query order lines", zap.String("order_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get lines for order %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		line := domain.OrderLine{}
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.UnitPrice, &line.LineTotal); err != nil {
			r.logger.Error("Failed to scan order line row", zap.String("order_id", id), zap.Error(err))
			return nil, fmt.Errorf("failed to scan order line row: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Rows error for order lines", zap.String("order_id", id), zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return order, nil
}

func (r *pgOrderRepository) GetAllOrders(ctx context.Context) ([]*domain.Order, error) {
	var orders []*domain.Order
	query := `SELECT id, customer_id, shipping_address, total_amount, currency, status, created_at, updated_at
		FROM orders ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query all orders", zap.Error(err))
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		order := &domain.Order{}
		if err := rows.Scan(&order.ID, &order.CustomerID, &order.ShippingAddress,
			&order.TotalAmount, &order.Currency, &order.Status, &order.CreatedAt, &order.UpdatedAt); err != nil {
			r.logger.Error("Failed to scan row for all orders", zap.Error(err))
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Rows error for all orders", zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return orders, nil
}

func (r *pgOrderRepository) UpdateOrderStatus(ctx context.Context, order *domain.Order) error {
	query := `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, order.ID, order.Status, order.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update order status", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		r.logger.Error("Failed to get rows affected for order status update", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("No rows affected when updating order status, order might not exist", zap.String("order_id", order.ID))
		return sql.ErrNoRows
	}
	r.logger.Debug("Order status updated", zap.String("order_id", order.ID), zap.String("new_status", string(order.Status)))
	return nil
}
