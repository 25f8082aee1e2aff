package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/messages"
	app "github.com/myosher1/sales-delivery/internal/sales/app/orders"
)

type mockOrderService struct {
	app.OrderService
	mu     sync.Mutex
	events []*messages.DeliveryStatusUpdate
	err    error
}

func (m *mockOrderService) HandleDeliveryStatusUpdate(ctx context.Context, event *messages.DeliveryStatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
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

func TestHandleMessage_ValidEvent(t *testing.T) {
	svc := &mockOrderService{}
	consumer := NewDeliveryStatusConsumer(svc, &recordingProducer{}, "dlq", zap.NewNop())

	payload, _ := json.Marshal(messages.DeliveryStatusUpdate{
		Type:       messages.TypeDeliveryStatusUpdate,
		OrderID:    "order-1",
		DeliveryID: "delivery-1",
		Status:     "IN_TRANSIT",
	})
	if err := consumer.HandleMessage(context.Background(), payload); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if len(svc.events) != 1 || svc.events[0].Status != "IN_TRANSIT" {
		t.Errorf("expected event to reach the service, got %+v", svc.events)
	}
}

func TestHandleMessage_MalformedIsAckedAndDeadLettered(t *testing.T) {
	svc := &mockOrderService{}
	producer := &recordingProducer{}
	consumer := NewDeliveryStatusConsumer(svc, producer, "dlq", zap.NewNop())

	if err := consumer.HandleMessage(context.Background(), []byte("{broken")); err != nil {
		t.Fatalf("malformed message must be acknowledged, got: %v", err)
	}
	if len(svc.events) != 0 {
		t.Error("malformed message must not reach the service")
	}
	if len(producer.topics) != 1 || producer.topics[0] != "dlq" {
		t.Errorf("expected one dead-lettered message, got %v", producer.topics)
	}
}

func TestHandleMessage_UnknownTypeIsDropped(t *testing.T) {
	svc := &mockOrderService{}
	producer := &recordingProducer{}
	consumer := NewDeliveryStatusConsumer(svc, producer, "dlq", zap.NewNop())

	payload, _ := json.Marshal(map[string]string{"type": "SOMETHING_ELSE", "orderId": "order-1"})
	if err := consumer.HandleMessage(context.Background(), payload); err != nil {
		t.Fatalf("unknown type must be acknowledged, got: %v", err)
	}
	if len(svc.events) != 0 {
		t.Error("unknown type must not reach the service")
	}
	if len(producer.topics) != 1 {
		t.Errorf("expected unknown type to be dead-lettered, got %v", producer.topics)
	}
}

func TestHandleMessage_UnknownStatusIsAcked(t *testing.T) {
	svc := &mockOrderService{err: app.ErrUnknownDeliveryStatus}
	producer := &recordingProducer{}
	consumer := NewDeliveryStatusConsumer(svc, producer, "dlq", zap.NewNop())

	payload, _ := json.Marshal(messages.DeliveryStatusUpdate{
		Type:    messages.TypeDeliveryStatusUpdate,
		OrderID: "order-1",
		Status:  "TELEPORTED",
	})
	if err := consumer.HandleMessage(context.Background(), payload); err != nil {
		t.Fatalf("unknown status must be acknowledged, got: %v", err)
	}
	if len(producer.topics) != 1 {
		t.Errorf("expected unknown status to be dead-lettered, got %v", producer.topics)
	}
}
