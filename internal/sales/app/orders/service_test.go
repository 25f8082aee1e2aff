package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/messages"
	"github.com/myosher1/sales-delivery/internal/sales/domain"
)

// Mock OrderRepository
type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	fail   bool
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderRepo) CreateOrderWithLines(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("db down")
	}
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *mockOrderRepo) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepo) GetAllOrders(ctx context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, order := range m.orders {
		copied := *order
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateOrderStatus(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[order.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Status = order.Status
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

// Mock StockChecker
type mockStockChecker struct {
	resp *messages.StockCheckResponse
	err  error
}

func (m *mockStockChecker) Check(ctx context.Context, items []messages.Item) (*messages.StockCheckResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

// Mock Producer recording topic/payload pairs and their keys.
type mockProducer struct {
	mu        sync.Mutex
	published map[string][][]byte
	keys      map[string][]string
	err       error
}

func newMockProducer() *mockProducer {
	return &mockProducer{published: make(map[string][][]byte), keys: make(map[string][]string)}
}

func (m *mockProducer) Produce(ctx context.Context, topic string, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published[topic] = append(m.published[topic], message)
	m.keys[topic] = append(m.keys[topic], key)
	return nil
}

func (m *mockProducer) Close() error { return nil }

func (m *mockProducer) count(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published[topic])
}

var testTopics = Topics{
	Reservation:  "stock_reservations",
	Release:      "stock_releases",
	OrderCreated: "order_created",
}

func availableResponse() *messages.StockCheckResponse {
	return &messages.StockCheckResponse{Available: true}
}

func validRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		CustomerID:      "customer-1",
		ShippingAddress: "1 Main St",
		Currency:        "EUR",
		Items: []OrderItemRequest{
			{ProductID: "p-1", Quantity: 2, UnitPrice: 10},
			{ProductID: "p-2", Quantity: 1, UnitPrice: 5},
		},
	}
}

func TestCreateOrder_Success(t *testing.T) {
	repo := newMockOrderRepo()
	producer := newMockProducer()
	svc := NewOrderService(repo, &mockStockChecker{resp: availableResponse()}, producer, testTopics, zap.NewNop())

	resp, err := svc.CreateOrder(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if resp.Status != string(domain.OrderStatusPendingShipment) {
		t.Errorf("expected PENDING_SHIPMENT, got %s", resp.Status)
	}
	if resp.TotalAmount != 25 {
		t.Errorf("expected total 25, got %f", resp.TotalAmount)
	}
	if len(repo.orders) != 1 {
		t.Errorf("expected 1 persisted order, got %d", len(repo.orders))
	}
	if producer.count(testTopics.Reservation) != 1 {
		t.Errorf("expected reservation message, got %d", producer.count(testTopics.Reservation))
	}
	if producer.count(testTopics.OrderCreated) != 1 {
		t.Errorf("expected order created announcement, got %d", producer.count(testTopics.OrderCreated))
	}

	var announcement messages.OrderCreated
	if err := json.Unmarshal(producer.published[testTopics.OrderCreated][0], &announcement); err != nil {
		t.Fatalf("failed to unmarshal announcement: %v", err)
	}
	if announcement.Type != messages.TypeOrderCreated {
		t.Errorf("expected type ORDER_CREATED, got %s", announcement.Type)
	}
	if announcement.OrderID != resp.ID {
		t.Errorf("announcement order id mismatch")
	}
	if producer.keys[testTopics.Reservation][0] != resp.ID {
		t.Errorf("reservation must be keyed by order id, got %q", producer.keys[testTopics.Reservation][0])
	}
	if producer.keys[testTopics.OrderCreated][0] != resp.ID {
		t.Errorf("announcement must be keyed by order id, got %q", producer.keys[testTopics.OrderCreated][0])
	}
}

func TestCreateOrder_UnavailableItems(t *testing.T) {
	repo := newMockOrderRepo()
	producer := newMockProducer()
	checker := &mockStockChecker{resp: &messages.StockCheckResponse{
		Available: false,
		UnavailableItems: []messages.ItemAvailability{
			{ProductID: "p-2", Available: false, Reason: "insufficient stock"},
		},
	}}
	svc := NewOrderService(repo, checker, producer, testTopics, zap.NewNop())

	_, err := svc.CreateOrder(context.Background(), validRequest())
	var unavailable *UnavailableItemsError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableItemsError, got: %v", err)
	}
	if len(unavailable.Items) != 1 || unavailable.Items[0].ProductID != "p-2" {
		t.Errorf("expected p-2 in unavailable items, got %+v", unavailable.Items)
	}
	if len(repo.orders) != 0 {
		t.Errorf("nothing must be persisted for a rejected order, got %d orders", len(repo.orders))
	}
	if producer.count(testTopics.Reservation) != 0 || producer.count(testTopics.OrderCreated) != 0 {
		t.Error("nothing must be published for a rejected order")
	}
}

func TestCreateOrder_CheckFailure(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, &mockStockChecker{err: errors.New("timed out")}, newMockProducer(), testTopics, zap.NewNop())

	_, err := svc.CreateOrder(context.Background(), validRequest())
	if !errors.Is(err, ErrAvailabilityCheck) {
		t.Fatalf("expected ErrAvailabilityCheck, got: %v", err)
	}
	if len(repo.orders) != 0 {
		t.Error("nothing must be persisted when the availability check fails")
	}
}

func TestCreateOrder_PublishFailureTolerated(t *testing.T) {
	repo := newMockOrderRepo()
	producer := newMockProducer()
	producer.err = errors.New("broker down")
	svc := NewOrderService(repo, &mockStockChecker{resp: availableResponse()}, producer, testTopics, zap.NewNop())

	resp, err := svc.CreateOrder(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("publish failure must not fail order creation, got: %v", err)
	}
	if _, ok := repo.orders[resp.ID]; !ok {
		t.Error("order must be persisted despite publish failure")
	}
}

func seedOrder(t *testing.T, repo *mockOrderRepo) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder("order-1", "customer-1", "1 Main St", "EUR",
		[]domain.OrderLine{{ProductID: "p-1", Quantity: 2, UnitPrice: 10}})
	if err != nil {
		t.Fatalf("failed to build order: %v", err)
	}
	repo.orders[order.ID] = order
	return order
}

func TestHandleDeliveryStatusUpdate_Mapping(t *testing.T) {
	cases := []struct {
		deliveryStatus string
		expected       domain.OrderStatus
	}{
		{"IN_TRANSIT", domain.OrderStatusShipped},
		{"DELIVERED", domain.OrderStatusDelivered},
		{"FAILED", domain.OrderStatusCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.deliveryStatus, func(t *testing.T) {
			repo := newMockOrderRepo()
			seedOrder(t, repo)
			svc := NewOrderService(repo, &mockStockChecker{}, newMockProducer(), testTopics, zap.NewNop())

			err := svc.HandleDeliveryStatusUpdate(context.Background(), &messages.DeliveryStatusUpdate{
				Type:    messages.TypeDeliveryStatusUpdate,
				OrderID: "order-1",
				Status:  tc.deliveryStatus,
			})
			if err != nil {
				t.Fatalf("handler failed: %v", err)
			}
			if repo.orders["order-1"].Status != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, repo.orders["order-1"].Status)
			}
		})
	}
}

func TestHandleDeliveryStatusUpdate_UnknownStatus(t *testing.T) {
	repo := newMockOrderRepo()
	seedOrder(t, repo)
	svc := NewOrderService(repo, &mockStockChecker{}, newMockProducer(), testTopics, zap.NewNop())

	err := svc.HandleDeliveryStatusUpdate(context.Background(), &messages.DeliveryStatusUpdate{
		OrderID: "order-1",
		Status:  "TELEPORTED",
	})
	if !errors.Is(err, ErrUnknownDeliveryStatus) {
		t.Fatalf("expected ErrUnknownDeliveryStatus, got: %v", err)
	}
	if repo.orders["order-1"].Status != domain.OrderStatusPendingShipment {
		t.Error("unknown status must not mutate the order")
	}
}

func TestHandleDeliveryStatusUpdate_MissingOrderIgnored(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), &mockStockChecker{}, newMockProducer(), testTopics, zap.NewNop())

	err := svc.HandleDeliveryStatusUpdate(context.Background(), &messages.DeliveryStatusUpdate{
		OrderID: "ghost",
		Status:  "DELIVERED",
	})
	if err != nil {
		t.Fatalf("missing order must be ignored, got: %v", err)
	}
}

func TestHandleDeliveryStatusUpdate_FailedReleasesStock(t *testing.T) {
	repo := newMockOrderRepo()
	seedOrder(t, repo)
	producer := newMockProducer()
	svc := NewOrderService(repo, &mockStockChecker{}, producer, testTopics, zap.NewNop())

	err := svc.HandleDeliveryStatusUpdate(context.Background(), &messages.DeliveryStatusUpdate{
		OrderID: "order-1",
		Status:  "FAILED",
	})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if producer.count(testTopics.Release) != 1 {
		t.Fatalf("expected a stock release message, got %d", producer.count(testTopics.Release))
	}
	var release messages.StockRelease
	if err := json.Unmarshal(producer.published[testTopics.Release][0], &release); err != nil {
		t.Fatalf("failed to unmarshal release: %v", err)
	}
	if release.OrderID != "order-1" || len(release.Items) != 1 || release.Items[0].Quantity != 2 {
		t.Errorf("unexpected release payload: %+v", release)
	}
	if producer.keys[testTopics.Release][0] != "order-1" {
		t.Errorf("release must be keyed by order id, got %q", producer.keys[testTopics.Release][0])
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	repo := newMockOrderRepo()
	seedOrder(t, repo)
	svc := NewOrderService(repo, &mockStockChecker{}, newMockProducer(), testTopics, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.UpdateOrderStatus(ctx, "order-1", "DELIVERED"); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Errorf("expected invalid transition, got: %v", err)
	}
	if _, err := svc.UpdateOrderStatus(ctx, "order-1", "NONSENSE"); !errors.Is(err, domain.ErrUnknownOrderStatus) {
		t.Errorf("expected unknown status error, got: %v", err)
	}
	resp, err := svc.UpdateOrderStatus(ctx, "order-1", "SHIPPED")
	if err != nil {
		t.Fatalf("valid transition failed: %v", err)
	}
	if resp.Status != string(domain.OrderStatusShipped) {
		t.Errorf("expected SHIPPED, got %s", resp.Status)
	}
	if _, err := svc.UpdateOrderStatus(ctx, "ghost", "SHIPPED"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got: %v", err)
	}
}
