package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	app "github.com/myosher1/sales-delivery/internal/delivery/app/deliveries"
	"github.com/myosher1/sales-delivery/internal/delivery/domain"
	"github.com/myosher1/sales-delivery/internal/kafka"
	"github.com/myosher1/sales-delivery/internal/messages"
)

// OrderCreatedConsumer creates a shipment for every order announcement.
// Malformed payloads and unknown message types are acknowledged after
// being dead-lettered so they never wedge the consumer loop.
type OrderCreatedConsumer struct {
	deliveryService app.DeliveryService
	producer        kafka.Producer
	deadLetterTopic string
	logger          *zap.Logger
}

func NewOrderCreatedConsumer(s app.DeliveryService, p kafka.Producer, deadLetterTopic string, l *zap.Logger) *OrderCreatedConsumer {
	return &OrderCreatedConsumer{deliveryService: s, producer: p, deadLetterTopic: deadLetterTopic, logger: l}
}

func (c *OrderCreatedConsumer) HandleMessage(ctx context.Context, message []byte) error {
	var announcement messages.OrderCreated
	if err := json.Unmarshal(message, &announcement); err != nil {
		c.logger.Error("Error unmarshalling order created message", zap.Error(err), zap.String("raw_message", string(message)))
		kafka.DeadLetter(ctx, c.producer, c.deadLetterTopic, message, c.logger)
		return nil
	}

	if announcement.Type != "" && announcement.Type != messages.TypeOrderCreated {
		c.logger.Warn("Unknown message type on order created topic, dropping",
			zap.String("type", announcement.Type))
		kafka.DeadLetter(ctx, c.producer, c.deadLetterTopic, message, c.logger)
		return nil
	}

	c.logger.Info("Received order announcement",
		zap.String("order_id", announcement.OrderID),
		zap.String("customer_id", announcement.CustomerID))

	err := c.deliveryService.HandleOrderCreated(ctx, &announcement)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDeliveryData) {
			kafka.DeadLetter(ctx, c.producer, c.deadLetterTopic, message, c.logger)
			return nil
		}
		c.logger.Error("Error creating delivery for order",
			zap.String("order_id", announcement.OrderID),
			zap.Error(err))
		return err
	}
	return nil
}
