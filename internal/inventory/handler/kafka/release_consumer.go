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

// ReleaseConsumer returns stock reserved for orders that were cancelled.
type ReleaseConsumer struct {
	service         app.StockService
	producer        kafka.Producer
	deadLetterTopic string
	logger          *zap.Logger
}

func NewReleaseConsumer(s app.StockService, p kafka.Producer, deadLetterTopic string, l *zap.Logger) *ReleaseConsumer {
	return &ReleaseConsumer{service: s, producer: p, deadLetterTopic: deadLetterTopic, logger: l}
}

func (c *ReleaseConsumer) HandleMessage(ctx context.Context, message []byte) error {
	var req messages.StockRelease
	if err := json.Unmarshal(message, &req); err != nil {
		c.logger.Error("Error unmarshalling stock release", zap.Error(err), zap.String("raw_message", string(message)))
		kafka.DeadLetter(ctx, c.producer, c.deadLetterTopic, message, c.logger)
		return nil
	}

	c.logger.Info("Received stock release",
		zap.String("order_id", req.OrderID),
		zap.Int("item_count", len(req.Items)))

	items := make([]app.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = app.Item{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	if _, err := c.service.Release(ctx, req.OrderID, items); err != nil {
		if errors.Is(err, app.ErrProductNotFound) || errors.Is(err, app.ErrNoItems) {
			c.logger.Warn("Stock release rejected",
				zap.String("order_id", req.OrderID),
				zap.Error(err))
			return nil
		}
		c.logger.Error("Error processing stock release",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		return err
	}
	return nil
}
