package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sacviet-order-service/internal/models"
)

// MemoryStore keeps orders in process memory. It backs local mode when no
// database is configured and has the same error contract as Store.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]models.Order
	nextID int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]models.Order)}
}

// Ping always succeeds
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

// CreateOrder inserts a new order. The order code must be unique.
func (m *MemoryStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[order.OrderID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateOrderID, order.OrderID)
	}

	m.nextID++
	order.ID = m.nextID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	order.UpdatedAt = order.CreatedAt

	stored := *order
	stored.Items = append(models.OrderItems(nil), order.Items...)
	m.orders[order.OrderID] = stored
	return nil
}

// GetOrderByCode retrieves an order by its SN-###### code
func (m *MemoryStore) GetOrderByCode(_ context.Context, orderID string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	order.Items = append(models.OrderItems(nil), order.Items...)
	return &order, nil
}

// GetOrderStatus reads only the status
func (m *MemoryStore) GetOrderStatus(_ context.Context, orderID string) (models.OrderStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[orderID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return order.Status, nil
}

// UpdateOrderStatus overwrites the status of one order
func (m *MemoryStore) UpdateOrderStatus(_ context.Context, orderID string, status models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	m.orders[orderID] = order
	return nil
}

// ListOrdersByUser retrieves a user's orders, newest first
func (m *MemoryStore) ListOrdersByUser(_ context.Context, userID string) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := []models.Order{}
	for _, order := range m.orders {
		if order.UserID == userID {
			order.Items = append(models.OrderItems(nil), order.Items...)
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// DeleteOrder removes an order
func (m *MemoryStore) DeleteOrder(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, orderID)
	return nil
}
