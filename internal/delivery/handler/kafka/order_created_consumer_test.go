package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	app "github.com/myosher1/sales-delivery/internal/delivery/app/deliveries"
	"github.com/myosher1/sales-delivery/internal/messages"
)

type mockDeliveryService struct {
	app.DeliveryService
	mu            sync.Mutex
	announcements []*messages.OrderCreated
	err           error
}

func (m *mockDeliveryService) HandleOrderCreated(ctx context.Context, announcement *messages.OrderCreated) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.announcements = append(m.announcements, announcement)
	return nil
}

type recordingProducer struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingProducer) Produce(ctx context.Context, topic string, key string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func TestOrderCreatedHandleMessage_ValidAnnouncement(t *testing.T) {
	svc := &mockDeliveryService{}
	consumer := NewOrderCreatedConsumer(svc, &recordingProducer{}, "dlq", zap.NewNop())

	payload, _ := json.Marshal(messages.OrderCreated{
		Type:       messages.TypeOrderCreated,
		OrderID:    "order-1",
		CustomerID: "customer-1",
	})
	if err := consumer.HandleMessage(context.Background(), payload); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if len(svc.announcements) != 1 || svc.announcements[0].OrderID != "order-1" {
		t.Errorf("expected announcement to reach the service, got %+v", svc.announcements)
	}
}

func TestOrderCreatedHandleMessage_MalformedPayloadDeadLettered(t *testing.T) {
	svc := &mockDeliveryService{}
	producer := &recordingProducer{}
	consumer := NewOrderCreatedConsumer(svc, producer, "dlq", zap.NewNop())

	if err := consumer.HandleMessage(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("malformed payload must be acknowledged, got %v", err)
	}
	if len(svc.announcements) != 0 {
		t.Errorf("malformed payload must not reach the service")
	}
	if len(producer.topics) != 1 || producer.topics[0] != "dlq" {
		t.Errorf("expected one dead letter, got %v", producer.topics)
	}
}

func TestOrderCreatedHandleMessage_UnknownTypeDeadLettered(t *testing.T) {
	svc := &mockDeliveryService{}
	producer := &recordingProducer{}
	consumer := NewOrderCreatedConsumer(svc, producer, "dlq", zap.NewNop())

	payload, _ := json.Marshal(messages.OrderCreated{Type: "SOMETHING_ELSE", OrderID: "order-1"})
	if err := consumer.HandleMessage(context.Background(), payload); err != nil {
		t.Fatalf("unknown type must be acknowledged, got %v", err)
	}
	if len(svc.announcements) != 0 {
		t.Errorf("unknown type must not reach the service")
	}
	if len(producer.topics) != 1 {
		t.Errorf("expected one dead letter, got %v", producer.topics)
	}
}

func TestOrderCreatedHandleMessage_ServiceFailureRetried(t *testing.T) {
	svc := &mockDeliveryService{err: errors.New("db down")}
	producer := &recordingProducer{}
	consumer := NewOrderCreatedConsumer(svc, producer, "dlq", zap.NewNop())

	payload, _ := json.Marshal(messages.OrderCreated{Type: messages.TypeOrderCreated, OrderID: "order-1"})
	if err := consumer.HandleMessage(context.Background(), payload); err == nil {
		t.Fatal("infrastructure failure must be returned so the message is retried")
	}
	if len(producer.topics) != 0 {
		t.Errorf("infrastructure failure must not be dead-lettered, got %v", producer.topics)
	}
}
