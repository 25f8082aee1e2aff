package kafka

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	app "github.com/myosher1/sales-delivery/internal/inventory/app/stock"
	"github.com/myosher1/sales-delivery/internal/kafka"
	"github.com/myosher1/sales-delivery/internal/messages"
)

// StockCheckConsumer answers availability queries arriving on the request
// topic with a correlated reply on the response topic.
type StockCheckConsumer struct {
	service         app.StockService
	producer        kafka.Producer
	responseTopic   string
	deadLetterTopic string
	logger          *zap.Logger
}

func NewStockCheckConsumer(s app.StockService, p kafka.Producer, responseTopic, deadLetterTopic string, l *zap.Logger) *StockCheckConsumer {
	return &StockCheckConsumer{
		service:         s,
		producer:        p,
		responseTopic:   responseTopic,
		deadLetterTopic: deadLetterTopic,
		logger:          l,
	}
}

func (c *StockCheckConsumer) HandleMessage(ctx context.Context, message []byte) error {
	var req messages.StockCheckRequest
	if err := json.Unmarshal(message, &req); err != nil {
		c.logger.Error("Error unmarshalling stock check request", zap.Error(err), zap.String("raw_message", string(message)))
		kafka.DeadLetter(ctx, c.producer, c.deadLetterTopic, message, c.logger)
		return nil
	}
	if req.CorrelationID == "" {
		c.logger.Warn("Stock check request without correlation id, dropping", zap.String("raw_message", string(message)))
		kafka.DeadLetter(ctx, c.producer, c.deadLetterTopic, message, c.logger)
		return nil
	}

	c.logger.Info("Received stock check request",
		zap.String("correlation_id", req.CorrelationID),
		zap.Int("item_count", len(req.Items)))

	items := make([]app.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = app.Item{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	results, err := c.service.CheckAvailability(ctx, items)
	if err != nil {
		c.logger.Error("Error checking availability for stock check request",
			zap.String("correlation_id", req.CorrelationID),
			zap.Error(err))
		return err
	}

	resp := messages.StockCheckResponse{
		CorrelationID: req.CorrelationID,
		Available:     true,
	}
	for _, result := range results {
		item := messages.ItemAvailability{
			ProductID:    result.ProductID,
			Available:    result.Available,
			CurrentStock: result.CurrentStock,
			Reason:       result.Reason,
		}
		resp.Items = append(resp.Items, item)
		if !result.Available {
			resp.Available = false
			resp.UnavailableItems = append(resp.UnavailableItems, item)
		}
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("Failed to marshal stock check response",
			zap.String("correlation_id", req.CorrelationID),
			zap.Error(err))
		return nil
	}

	if err := c.producer.Produce(ctx, c.responseTopic, req.CorrelationID, payload); err != nil {
		c.logger.Error("Failed to publish stock check response",
			zap.String("correlation_id", req.CorrelationID),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Stock check response published",
		zap.String("correlation_id", req.CorrelationID),
		zap.Bool("available", resp.Available))
	return nil
}
