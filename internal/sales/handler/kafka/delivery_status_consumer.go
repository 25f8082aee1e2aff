package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/kafka"
	"github.com/myosher1/sales-delivery/internal/messages"
	app "github.com/myosher1/sales-delivery/internal/sales/app/orders"
)

// DeliveryStatusConsumer feeds delivery status events into the order
// service. Malformed payloads and unknown message types are acknowledged
// after being dead-lettered so they never wedge the consumer loop.
type DeliveryStatusConsumer struct {
	orderService    app.OrderService
	producer        kafka.Producer
	deadLetterTopic string
	logger          *zap.Logger
}

func NewDeliveryStatusConsumer(s app.OrderService, p kafka.Producer, deadLetterTopic string, l *zap.Logger) *DeliveryStatusConsumer {
	return &DeliveryStatusConsumer{orderService: s, producer: p, deadLetterTopic: deadLetterTopic, logger: l}
}

func (c *DeliveryStatusConsumer) HandleMessage(ctx context.Context, message []byte) error {
	var event messages.DeliveryStatusUpdate
	if err := json.Unmarshal(message, &event); err != nil {
		c.logger.Error("Error unmarshalling delivery status message", zap.Error(err), zap.String("raw_message", string(message)))
		kafka.DeadLetter(ctx, c.producer, c.deadLetterTopic, message, c.logger)
		return nil
	}

	if event.Type != "" && event.Type != messages.TypeDeliveryStatusUpdate {
		c.logger.Warn("Unknown message type on delivery status topic, dropping",
			zap.String("type", event.Type))
		kafka.DeadLetter(ctx, c.producer, c.deadLetterTopic, message, c.logger)
		return nil
	}

	c.logger.Info("Received delivery status update",
		zap.String("order_id", event.OrderID),
		zap.String("delivery_id", event.DeliveryID),
		zap.String("status", event.Status))

	err := c.orderService.HandleDeliveryStatusUpdate(ctx, &event)
	if err != nil {
		if errors.Is(err, app.ErrUnknownDeliveryStatus) {
			kafka.DeadLetter(ctx, c.producer, c.deadLetterTopic, message, c.logger)
			return nil
		}
		c.logger.Error("Error processing delivery status update for order",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return err
	}
	return nil
}
