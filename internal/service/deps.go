package service

import (
	"context"

	"sacviet-order-service/internal/models"
)

// OrderStore is the persistence the services need. *store.Store implements it.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByCode(ctx context.Context, orderID string) (*models.Order, error)
	GetOrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
}

// StatusCache caches order statuses for the polling read path. *redisclient.Client implements it.
// Only paid is ever cached: it is final, so a cached entry can never go stale.
type StatusCache interface {
	GetOrderStatus(ctx context.Context, orderID string) (models.OrderStatus, bool, error)
	SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	DeleteOrderStatus(ctx context.Context, orderID string) error
}

// EventPublisher emits order domain events. *broker.EventPublisher implements it.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishPaymentUnderpaid(ctx context.Context, event *models.PaymentUnderpaidEvent) error
}
