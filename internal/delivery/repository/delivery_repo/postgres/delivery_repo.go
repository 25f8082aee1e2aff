package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/delivery/domain"
	"github.com/myosher1/sales-delivery/internal/delivery/repository/delivery_repo"
	"github.com/myosher1/sales-delivery/internal/delivery/repository/outbox_repo"
)

type pgDeliveryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDeliveryRepository(db *sql.DB, l *zap.Logger) delivery_repo.DeliveryRepository {
	return &pgDeliveryRepository{db: db, logger: l}
}

func (r *pgDeliveryRepository) CreateDelivery(ctx context.Context, delivery *domain.Delivery) error {
	query := `INSERT INTO deliveries (id, order_id, customer_id, shipping_address, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, delivery.ID, delivery.OrderID, delivery.CustomerID, delivery.ShippingAddress, delivery.Status, delivery.CreatedAt, delivery.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create delivery", zap.String("delivery_id", delivery.ID), zap.Error(err))
		return fmt.Errorf("failed to create delivery: %w", err)
	}
	r.logger.Debug("Delivery created successfully", zap.String("delivery_id", delivery.ID), zap.String("order_id", delivery.OrderID))
	return nil
}

func (r *pgDeliveryRepository) GetDeliveryByID(ctx context.Context, id string) (*domain.Delivery, error) {
	delivery := &domain.Delivery{}
	query := `SELECT id, order_id, customer_id, shipping_address, status, created_at, updated_at FROM deliveries WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&delivery.ID, &delivery.OrderID, &delivery.CustomerID, &delivery.ShippingAddress,
		&delivery.Status, &delivery.CreatedAt, &delivery.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("Delivery not found", zap.String("delivery_id", id))
			return nil, err
		}
		r.logger.Error("Failed to get delivery by ID", zap.String("delivery_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get delivery by ID %s: %w", id, err)
	}
	return delivery, nil
}

func (r *pgDeliveryRepository) GetDeliveryByOrderID(ctx context.Context, orderID string) (*domain.Delivery, error) {
	delivery := &domain.Delivery{}
	query := `SELECT id, order_id, customer_id, shipping_address, status, created_at, updated_at FROM deliveries WHERE order_id = $1`
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&delivery.ID, &delivery.OrderID, &delivery.CustomerID, &delivery.ShippingAddress,
		&delivery.Status, &delivery.CreatedAt, &delivery.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("Delivery not found for order", zap.String("order_id", orderID))
			return nil, err
		}
		r.logger.Error("Failed to get delivery by order ID", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to get delivery by order ID %s: %w", orderID, err)
	}
	return delivery, nil
}

func (r *pgDeliveryRepository) GetAllDeliveries(ctx context.Context) ([]*domain.Delivery, error) {
	var deliveries []*domain.Delivery
	query := `SELECT id, order_id, customer_id, shipping_address, status, created_at, updated_at FROM deliveries ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to get all deliveries", zap.Error(err))
		return nil, fmt.Errorf("failed to get all deliveries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		delivery := &domain.Delivery{}
		if err := rows.Scan(
			&delivery.ID, &delivery.OrderID, &delivery.CustomerID, &delivery.ShippingAddress,
			&delivery.Status, &delivery.CreatedAt, &delivery.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan delivery row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan delivery row: %w", err)
		}
		deliveries = append(deliveries, delivery)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Rows error while getting all deliveries", zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return deliveries, nil
}

func (r *pgDeliveryRepository) UpdateDeliveryAndOutboxMessage(ctx context.Context, delivery *domain.Delivery, msg *outbox_repo.OutboxMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction for delivery update", zap.String("delivery_id", delivery.ID), zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Panic during transaction for delivery update, rolling back", zap.String("delivery_id", delivery.ID))
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			r.logger.Warn("Rolling back transaction for delivery update due to error", zap.String("delivery_id", delivery.ID), zap.Error(err))
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
			if err != nil {
				r.logger.Error("Failed to commit transaction for delivery update", zap.String("delivery_id", delivery.ID), zap.Error(err))
			} else {
				r.logger.Debug("Transaction committed successfully for delivery update", zap.String("delivery_id", delivery.ID))
			}
		}
	}()

	deliveryQuery := `UPDATE deliveries SET status = $1, updated_at = $2 WHERE id = $3`
	var res sql.Result
	res, err = tx.ExecContext(ctx, deliveryQuery, delivery.Status, delivery.UpdatedAt, delivery.ID)
	if err != nil {
		return fmt.Errorf("tx failed to update delivery: %w", err)
	}
	var rowsAffected int64
	rowsAffected, err = res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tx failed to check delivery update result: %w", err)
	}
	if rowsAffected == 0 {
		err = sql.ErrNoRows
		return err
	}
	r.logger.Debug("Delivery updated in transaction", zap.String("delivery_id", delivery.ID), zap.String("status", string(delivery.Status)))

	outboxQuery := `INSERT INTO outbox_messages (id, topic, message_key, payload, status, attempts, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = tx.ExecContext(ctx, outboxQuery, msg.ID, msg.Topic, msg.Key, msg.Payload, msg.Status, msg.Attempts, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("tx failed to create outbox message: %w", err)
	}
	r.logger.Debug("Outbox message inserted in transaction", zap.String("message_id", msg.ID))

	return err
}
