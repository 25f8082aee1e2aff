package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	app "github.com/myosher1/sales-delivery/internal/inventory/app/stock"
	"github.com/myosher1/sales-delivery/internal/kafka"
	"github.com/myosher1/sales-delivery/internal/messages"
)

// ReservationConsumer applies one-way reserve requests. A reservation that
// fails on business grounds (insufficient stock, unknown product) is logged
// and acknowledged: there is no caller waiting for the result, and
// redelivery would not make the stock appear.
type ReservationConsumer struct {
	service         app.StockService
	producer        kafka.Producer
	deadLetterTopic string
	logger          *zap.Logger
}

func NewReservationConsumer(s app.StockService, p kafka.Producer, deadLetterTopic string, l *zap.Logger) *ReservationConsumer {
	return &ReservationConsumer{service: s, producer: p, deadLetterTopic: deadLetterTopic, logger: l}
}

func (c *ReservationConsumer) HandleMessage(ctx context.Context, message []byte) error {
	var req messages.StockReservation
	if err := json.Unmarshal(message, &req); err != nil {
		c.logger.Error("Error unmarshalling stock reservation", zap.Error(err), zap.String("raw_message", string(message)))
		kafka.DeadLetter(ctx, c.producer, c.deadLetterTopic, message, c.logger)
		return nil
	}

	c.logger.Info("Received stock reservation",
		zap.String("order_id", req.OrderID),
		zap.Int("item_count", len(req.Items)))

	items := make([]app.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = app.Item{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	if _, err := c.service.Reserve(ctx, req.OrderID, items); err != nil {
		if errors.Is(err, app.ErrInsufficientStock) || errors.Is(err, app.ErrNoItems) {
			c.logger.Warn("Stock reservation rejected",
				zap.String("order_id", req.OrderID),
				zap.Error(err))
			return nil
		}
		c.logger.Error("Error processing stock reservation",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		return err
	}
	return nil
}
