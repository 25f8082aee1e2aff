package deliveries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/delivery/domain"
	"github.com/myosher1/sales-delivery/internal/delivery/repository/delivery_repo"
	"github.com/myosher1/sales-delivery/internal/delivery/repository/outbox_repo"
	"github.com/myosher1/sales-delivery/internal/kafka"
	"github.com/myosher1/sales-delivery/internal/messages"
	"github.com/myosher1/sales-delivery/internal/util"
)

var (
	ErrDeliveryNotFound        = errors.New("delivery not found")
	ErrUnknownDeliveryStatus   = domain.ErrUnknownDeliveryStatus
	ErrInvalidStatusTransition = domain.ErrInvalidStatusTransition
)

type DeliveryService interface {
	HandleOrderCreated(ctx context.Context, announcement *messages.OrderCreated) error
	GetDelivery(ctx context.Context, id string) (*DeliveryResponse, error)
	GetAllDeliveries(ctx context.Context) ([]*DeliveryResponse, error)
	UpdateDeliveryStatus(ctx context.Context, id string, status string) (*DeliveryResponse, error)
	ProcessOutbox(ctx context.Context) error
}

type deliveryService struct {
	deliveryRepo  delivery_repo.DeliveryRepository
	outboxRepo    outbox_repo.OutboxRepository
	kafkaProducer kafka.Producer
	statusTopic   string
	logger        *zap.Logger
}

func NewDeliveryService(
	deliveryRepo delivery_repo.DeliveryRepository,
	outboxRepo outbox_repo.OutboxRepository,
	kafkaProducer kafka.Producer,
	statusTopic string,
	l *zap.Logger,
) DeliveryService {
	return &deliveryService{
		deliveryRepo:  deliveryRepo,
		outboxRepo:    outboxRepo,
		kafkaProducer: kafkaProducer,
		statusTopic:   statusTopic,
		logger:        l,
	}
}

// HandleOrderCreated creates a shipment for a newly announced order. A
// redelivered announcement for an order that already has a shipment is
// acknowledged without creating a second one.
func (s *deliveryService) HandleOrderCreated(ctx context.Context, announcement *messages.OrderCreated) error {
	existing, err := s.deliveryRepo.GetDeliveryByOrderID(ctx, announcement.OrderID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("Failed to look up delivery for order", zap.String("order_id", announcement.OrderID), zap.Error(err))
		return fmt.Errorf("failed to look up delivery for order %s: %w", announcement.OrderID, err)
	}
	if existing != nil {
		s.logger.Info("Delivery already exists for order, skipping duplicate announcement",
			zap.String("order_id", announcement.OrderID),
			zap.String("delivery_id", existing.ID))
		return nil
	}

	delivery, err := domain.NewDelivery(util.GenerateUUID(), announcement.OrderID, announcement.CustomerID, announcement.ShippingAddress)
	if err != nil {
		s.logger.Warn("Rejected order announcement with invalid delivery data",
			zap.String("order_id", announcement.OrderID), zap.Error(err))
		return err
	}

	if err := s.deliveryRepo.CreateDelivery(ctx, delivery); err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}

	s.logger.Info("Delivery created for order",
		zap.String("delivery_id", delivery.ID),
		zap.String("order_id", delivery.OrderID))
	return nil
}

func (s *deliveryService) GetDelivery(ctx context.Context, id string) (*DeliveryResponse, error) {
	delivery, err := s.deliveryRepo.GetDeliveryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	return mapDeliveryToResponse(delivery), nil
}

func (s *deliveryService) GetAllDeliveries(ctx context.Context) ([]*DeliveryResponse, error) {
	deliveries, err := s.deliveryRepo.GetAllDeliveries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get deliveries: %w", err)
	}
	return mapDeliveriesToResponse(deliveries), nil
}

// UpdateDeliveryStatus advances a shipment and records the status
// notification in the outbox within the same transaction, so the sales
// service is told about every committed change exactly once.
func (s *deliveryService) UpdateDeliveryStatus(ctx context.Context, id string, status string) (*DeliveryResponse, error) {
	target, err := domain.ParseDeliveryStatus(status)
	if err != nil {
		s.logger.Warn("Rejected unknown delivery status", zap.String("delivery_id", id), zap.String("status", status))
		return nil, err
	}

	delivery, err := s.deliveryRepo.GetDeliveryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}

	if err := delivery.TransitionTo(target); err != nil {
		s.logger.Warn("Rejected delivery status transition",
			zap.String("delivery_id", id),
			zap.String("current_status", string(delivery.Status)),
			zap.String("target_status", string(target)))
		return nil, err
	}

	update := messages.DeliveryStatusUpdate{
		Type:       messages.TypeDeliveryStatusUpdate,
		OrderID:    delivery.OrderID,
		Status:     string(delivery.Status),
		DeliveryID: delivery.ID,
		Timestamp:  delivery.UpdatedAt,
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal delivery status update: %w", err)
	}

	outboxMessage := &outbox_repo.OutboxMessage{
		ID:        util.GenerateUUID(),
		Topic:     s.statusTopic,
		Key:       delivery.OrderID,
		Payload:   payload,
		Status:    outbox_repo.StatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.deliveryRepo.UpdateDeliveryAndOutboxMessage(ctx, delivery, outboxMessage); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("failed to update delivery and outbox message: %w", err)
	}

	s.logger.Info("Delivery status updated",
		zap.String("delivery_id", delivery.ID),
		zap.String("order_id", delivery.OrderID),
		zap.String("status", string(delivery.Status)))
	return mapDeliveryToResponse(delivery), nil
}

func (s *deliveryService) ProcessOutbox(ctx context.Context) error {
	unsent, err := s.outboxRepo.GetUnsentMessages(ctx)
	if err != nil {
		s.logger.Error("Failed to get unsent outbox messages", zap.Error(err))
		return fmt.Errorf("failed to get unsent outbox messages: %w", err)
	}

	if len(unsent) == 0 {
		s.logger.Debug("No unsent outbox messages found.")
		return nil
	}

	s.logger.Info("Processing unsent outbox messages", zap.Int("count", len(unsent)))

	for _, msg := range unsent {
		if err := s.kafkaProducer.Produce(ctx, msg.Topic, msg.Key, msg.Payload); err != nil {
			s.logger.Error("Failed to produce outbox message to Kafka",
				zap.String("message_id", msg.ID),
				zap.String("topic", msg.Topic),
				zap.Int("attempts", msg.Attempts),
				zap.Error(err))
			if err := s.outboxRepo.RecordPublishFailure(ctx, msg.ID); err != nil {
				s.logger.Error("Failed to record outbox publish failure",
					zap.String("message_id", msg.ID),
					zap.Error(err))
			}
			continue
		}
		if err := s.outboxRepo.MarkMessageSent(ctx, msg.ID); err != nil {
			s.logger.Error("Failed to mark outbox message as sent",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		} else {
			s.logger.Debug("Outbox message sent and marked as sent", zap.String("message_id", msg.ID))
		}
	}
	return nil
}

func mapDeliveryToResponse(delivery *domain.Delivery) *DeliveryResponse {
	return &DeliveryResponse{
		ID:              delivery.ID,
		OrderID:         delivery.OrderID,
		CustomerID:      delivery.CustomerID,
		ShippingAddress: delivery.ShippingAddress,
		Status:          string(delivery.Status),
		CreatedAt:       delivery.CreatedAt,
		UpdatedAt:       delivery.UpdatedAt,
	}
}

func mapDeliveriesToResponse(deliveries []*domain.Delivery) []*DeliveryResponse {
	responses := make([]*DeliveryResponse, len(deliveries))
	for i, d := range deliveries {
		responses[i] = mapDeliveryToResponse(d)
	}
	return responses
}
