package delivery_repo

import (
	"context"

	"github.com/myosher1/sales-delivery/internal/delivery/domain"
	"github.com/myosher1/sales-delivery/internal/delivery/repository/outbox_repo"
)

type DeliveryRepository interface {
	CreateDelivery(ctx context.Context, delivery *domain.Delivery) error
	GetDeliveryByID(ctx context.Context, id string) (*domain.Delivery, error)
	GetDeliveryByOrderID(ctx context.Context, orderID string) (*domain.Delivery, error)
	GetAllDeliveries(ctx context.Context) ([]*domain.Delivery, error)
	UpdateDeliveryAndOutboxMessage(ctx context.Context, delivery *domain.Delivery, msg *outbox_repo.OutboxMessage) error
}
