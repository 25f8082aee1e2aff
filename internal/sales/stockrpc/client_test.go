package stockrpc

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/messages"
)

// Mock Producer capturing published requests.
type mockProducer struct {
	mu       sync.Mutex
	payloads [][]byte
	keys     []string
	err      error
}

func (m *mockProducer) Produce(ctx context.Context, topic string, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.payloads = append(m.payloads, message)
	m.keys = append(m.keys, key)
	return nil
}

func (m *mockProducer) Close() error { return nil }

func (m *mockProducer) lastRequest(t *testing.T) messages.StockCheckRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.payloads) == 0 {
		t.Fatal("no request published")
	}
	var req messages.StockCheckRequest
	if err := json.Unmarshal(m.payloads[len(m.payloads)-1], &req); err != nil {
		t.Fatalf("failed to unmarshal published request: %v", err)
	}
	return req
}

func TestCheck_ResolvedByReply(t *testing.T) {
	producer := &mockProducer{}
	client := NewClient(producer, "stock_check_requests", time.Second, zap.NewNop())

	done := make(chan struct{})
	var resp *messages.StockCheckResponse
	var checkErr error
	go func() {
		defer close(done)
		resp, checkErr = client.Check(context.Background(), []messages.Item{{ProductID: "p-1", Quantity: 2}})
	}()

	// Wait for the request to be published, then reply with its correlation id.
	var req messages.StockCheckRequest
	for i := 0; i < 100; i++ {
		producer.mu.Lock()
		n := len(producer.payloads)
		producer.mu.Unlock()
		if n > 0 {
			req = producer.lastRequest(t)
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if req.CorrelationID == "" {
		t.Fatal("request was never published")
	}
	producer.mu.Lock()
	if producer.keys[0] != req.CorrelationID {
		t.Errorf("request must be keyed by its correlation id, got %q", producer.keys[0])
	}
	producer.mu.Unlock()

	reply, _ := json.Marshal(messages.StockCheckResponse{CorrelationID: req.CorrelationID, Available: true})
	if err := client.HandleResponse(context.Background(), reply); err != nil {
		t.Fatalf("HandleResponse failed: %v", err)
	}

	<-done
	if checkErr != nil {
		t.Fatalf("Check failed: %v", checkErr)
	}
	if resp == nil || !resp.Available {
		t.Errorf("expected available response, got %+v", resp)
	}
	if client.PendingCount() != 0 {
		t.Errorf("expected pending table to be empty, got %d", client.PendingCount())
	}
}

func TestCheck_Timeout(t *testing.T) {
	producer := &mockProducer{}
	client := NewClient(producer, "stock_check_requests", 20*time.Millisecond, zap.NewNop())

	_, err := client.Check(context.Background(), []messages.Item{{ProductID: "p-1", Quantity: 1}})
	if !errors.Is(err, ErrCheckTimeout) {
		t.Fatalf("expected ErrCheckTimeout, got: %v", err)
	}
	if client.PendingCount() != 0 {
		t.Errorf("timed-out entry must be removed, pending: %d", client.PendingCount())
	}
}

func TestCheck_LateReplyAfterTimeoutIsNoOp(t *testing.T) {
	producer := &mockProducer{}
	client := NewClient(producer, "stock_check_requests", 20*time.Millisecond, zap.NewNop())

	_, err := client.Check(context.Background(), []messages.Item{{ProductID: "p-1", Quantity: 1}})
	if !errors.Is(err, ErrCheckTimeout) {
		t.Fatalf("expected ErrCheckTimeout, got: %v", err)
	}

	req := producer.lastRequest(t)
	reply, _ := json.Marshal(messages.StockCheckResponse{CorrelationID: req.CorrelationID, Available: true})

	// Late reply, then a duplicate of it: both are silently discarded.
	if err := client.HandleResponse(context.Background(), reply); err != nil {
		t.Errorf("late reply must be a no-op, got: %v", err)
	}
	if err := client.HandleResponse(context.Background(), reply); err != nil {
		t.Errorf("duplicate reply must be a no-op, got: %v", err)
	}
	if client.PendingCount() != 0 {
		t.Errorf("expected empty pending table, got %d", client.PendingCount())
	}
}

func TestCheck_ProduceFailureCleansUp(t *testing.T) {
	producer := &mockProducer{err: errors.New("broker down")}
	client := NewClient(producer, "stock_check_requests", time.Second, zap.NewNop())

	_, err := client.Check(context.Background(), []messages.Item{{ProductID: "p-1", Quantity: 1}})
	if err == nil {
		t.Fatal("expected error when publish fails")
	}
	if client.PendingCount() != 0 {
		t.Errorf("failed publish must not leak a pending entry, got %d", client.PendingCount())
	}
}

func TestHandleResponse_Malformed(t *testing.T) {
	client := NewClient(&mockProducer{}, "stock_check_requests", time.Second, zap.NewNop())
	if err := client.HandleResponse(context.Background(), []byte("not json")); err != nil {
		t.Errorf("malformed reply must be acknowledged, got: %v", err)
	}
}
