package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/kafka"
	"github.com/myosher1/sales-delivery/internal/messages"
	"github.com/myosher1/sales-delivery/internal/sales/domain"
	"github.com/myosher1/sales-delivery/internal/sales/repository/order_repo"
	"github.com/myosher1/sales-delivery/internal/util"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidOrder          = errors.New("invalid order data")
	ErrAvailabilityCheck     = errors.New("stock availability check failed")
	ErrUnknownDeliveryStatus = errors.New("unknown delivery status")
)

// UnavailableItemsError aborts order creation when any requested line
// cannot be fulfilled. Nothing is persisted when it is returned.
type UnavailableItemsError struct {
	Items []messages.ItemAvailability
}

func (e *UnavailableItemsError) Error() string {
	ids := make([]string, len(e.Items))
	for i, item := range e.Items {
		ids[i] = item.ProductID
	}
	return fmt.Sprintf("items unavailable: %s", strings.Join(ids, ", "))
}

// StockChecker queries the inventory service for availability. The queue
// RPC client implements it; tests substitute their own.
type StockChecker interface {
	Check(ctx context.Context, items []messages.Item) (*messages.StockCheckResponse, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (*OrderResponse, error)
	GetAllOrders(ctx context.Context) ([]*OrderResponse, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*OrderResponse, error)
	HandleDeliveryStatusUpdate(ctx context.Context, event *messages.DeliveryStatusUpdate) error
}

type Topics struct {
	Reservation  string
	Release      string
	OrderCreated string
}

type orderService struct {
	orderRepo     order_repo.OrderRepository
	stockChecker  StockChecker
	kafkaProducer kafka.Producer
	topics        Topics
	logger        *zap.Logger
}

func NewOrderService(
	orderRepo order_repo.OrderRepository,
	stockChecker StockChecker,
	kafkaProducer kafka.Producer,
	topics Topics,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:     orderRepo,
		stockChecker:  stockChecker,
		kafkaProducer: kafkaProducer,
		topics:        topics,
		logger:        logger,
	}
}

// CreateOrder runs the fulfillment saga: availability check, local
// persistence, fire-and-forget stock reservation, best-effort announcement.
// Steps after persistence are not compensated; a reservation or publish
// failure leaves the order in place and is only logged.
func (s *orderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, ErrInvalidOrder
	}

	checkItems := make([]messages.Item, len(req.Items))
	for i, item := range req.Items {
		checkItems[i] = messages.Item{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	checkResp, err := s.stockChecker.Check(ctx, checkItems)
	if err != nil {
		s.logger.Error("Availability check failed during order creation", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAvailabilityCheck, err)
	}
	if !checkResp.Available {
		s.logger.Info("Order rejected, items unavailable",
			zap.Int("unavailable_count", len(checkResp.UnavailableItems)))
		return nil, &UnavailableItemsError{Items: checkResp.UnavailableItems}
	}

	orderID := util.GenerateUUID()
	lines := make([]domain.OrderLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = domain.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	order, err := domain.NewOrder(orderID, req.CustomerID, req.ShippingAddress, req.Currency, lines)
	if err != nil {
		s.logger.Warn("Failed to create new order domain object", zap.Error(err))
		return nil, ErrInvalidOrder
	}

	if err := s.orderRepo.CreateOrderWithLines(ctx, order); err != nil {
		s.logger.Error("Failed to save order and lines", zap.String("order_id", order.ID), zap.Error(err))
		return nil, errors.New("failed to create order")
	}
	s.logger.Info("Order persisted", zap.String("order_id", order.ID), zap.Float64("total", order.TotalAmount))

	s.publishReservation(ctx, order)
	s.publishOrderCreated(ctx, order)

	return mapOrderToResponse(order), nil
}

func (s *orderService) publishReservation(ctx context.Context, order *domain.Order) {
	reservation := messages.StockReservation{OrderID: order.ID, Items: linesToItems(order.Lines)}
	payload, err := json.Marshal(reservation)
	if err != nil {
		s.logger.Error("Failed to marshal stock reservation", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	if err := s.kafkaProducer.Produce(ctx, s.topics.Reservation, order.ID, payload); err != nil {
		s.logger.Error("Failed to publish stock reservation, order remains without reserved stock",
			zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (s *orderService) publishOrderCreated(ctx context.Context, order *domain.Order) {
	items := make([]messages.OrderCreatedItem, len(order.Lines))
	for i, line := range order.Lines {
		items[i] = messages.OrderCreatedItem{ProductID: line.ProductID, Quantity: line.Quantity, UnitPrice: line.UnitPrice}
	}
	announcement := messages.OrderCreated{
		Type:            messages.TypeOrderCreated,
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		ShippingAddress: order.ShippingAddress,
		Items:           items,
		TotalAmount:     order.TotalAmount,
		CreatedAt:       order.CreatedAt,
	}
	payload, err := json.Marshal(announcement)
	if err != nil {
		s.logger.Error("Failed to marshal order created announcement", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	if err := s.kafkaProducer.Produce(ctx, s.topics.OrderCreated, order.ID, payload); err != nil {
		s.logger.Error("Failed to publish order created announcement, order exists without delivery",
			zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("Order not found", zap.String("order_id", orderID))
			return nil, ErrOrderNotFound
		}
		s.logger.Error("Failed to get order from repository", zap.String("order_id", orderID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return mapOrderToResponse(order), nil
}

func (s *orderService) GetAllOrders(ctx context.Context) ([]*OrderResponse, error) {
	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		s.logger.Error("Failed to get all orders from repository", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	responses := make([]*OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = mapOrderToResponse(order)
	}
	return responses, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID, status string) (*OrderResponse, error) {
	target, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("Failed to get order for status update", zap.String("order_id", orderID), zap.Error(err))
		return nil, errors.New("internal server error")
	}

	if err := order.Transition(target); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateOrderStatus(ctx, order); err != nil {
		s.logger.Error("Failed to update order status", zap.String("order_id", orderID), zap.Error(err))
		return nil, errors.New("failed to update order status")
	}
	return mapOrderToResponse(order), nil
}

// HandleDeliveryStatusUpdate overwrites the order status with the value
// derived from the delivery event: last message wins, no fencing. When the
// order ends up cancelled, a best-effort release of its reserved stock is
// published.
func (s *orderService) HandleDeliveryStatusUpdate(ctx context.Context, event *messages.DeliveryStatusUpdate) error {
	mapped, err := mapDeliveryStatus(event.Status)
	if err != nil {
		s.logger.Warn("Received unknown delivery status",
			zap.String("order_id", event.OrderID),
			zap.String("received_status", event.Status))
		return ErrUnknownDeliveryStatus
	}

	order, err := s.orderRepo.GetOrderByID(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Order not found for delivery status update, ignoring",
				zap.String("order_id", event.OrderID),
				zap.String("delivery_status", event.Status))
			return nil
		}
		s.logger.Error("Failed to retrieve order for delivery status update", zap.String("order_id", event.OrderID), zap.Error(err))
		return errors.New("failed to retrieve order for update")
	}

	originalStatus := order.Status
	order.OverwriteStatus(mapped)

	if originalStatus == order.Status {
		s.logger.Info("Order status already matches delivery event, no update needed",
			zap.String("order_id", order.ID),
			zap.String("status", string(originalStatus)))
		return nil
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, order); err != nil {
		s.logger.Error("Failed to update order status in database",
			zap.String("order_id", order.ID),
			zap.String("old_status", string(originalStatus)),
			zap.String("new_status", string(order.Status)),
			zap.Error(err))
		return errors.New("failed to update order status")
	}

	s.logger.Info("Order status updated based on delivery event",
		zap.String("order_id", order.ID),
		zap.String("old_status", string(originalStatus)),
		zap.String("new_status", string(order.Status)),
		zap.String("delivery_id", event.DeliveryID))

	if order.Status == domain.OrderStatusCancelled {
		s.publishRelease(ctx, order)
	}
	return nil
}

func (s *orderService) publishRelease(ctx context.Context, order *domain.Order) {
	release := messages.StockRelease{OrderID: order.ID, Items: linesToItems(order.Lines)}
	payload, err := json.Marshal(release)
	if err != nil {
		s.logger.Error("Failed to marshal stock release", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	if err := s.kafkaProducer.Produce(ctx, s.topics.Release, order.ID, payload); err != nil {
		s.logger.Error("Failed to publish stock release for cancelled order",
			zap.String("order_id", order.ID), zap.Error(err))
	} else {
		s.logger.Info("Stock release published for cancelled order", zap.String("order_id", order.ID))
	}
}

func mapDeliveryStatus(status string) (domain.OrderStatus, error) {
	switch status {
	case "PENDING":
		return domain.OrderStatusPendingShipment, nil
	case "IN_TRANSIT":
		return domain.OrderStatusShipped, nil
	case "DELIVERED":
		return domain.OrderStatusDelivered, nil
	case "FAILED":
		return domain.OrderStatusCancelled, nil
	default:
		return "", ErrUnknownDeliveryStatus
	}
}

func linesToItems(lines []domain.OrderLine) []messages.Item {
	items := make([]messages.Item, len(lines))
	for i, line := range lines {
		items[i] = messages.Item{ProductID: line.ProductID, Quantity: line.Quantity}
	}
	return items
}

func mapOrderToResponse(order *domain.Order) *OrderResponse {
	items := make([]OrderLineResponse, len(order.Lines))
	for i, line := range order.Lines {
		items[i] = OrderLineResponse{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		}
	}
	return &OrderResponse{
		ID:              order.ID,
		CustomerID:      order.CustomerID,
		ShippingAddress: order.ShippingAddress,
		TotalAmount:     order.TotalAmount,
		Currency:        order.Currency,
		Status:          string(order.Status),
		Items:           items,
		CreatedAt:       order.CreatedAt,
	}
}
