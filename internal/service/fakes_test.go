package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/store"
)

type memStore struct {
	mu        sync.Mutex
	orders    map[string]models.Order
	writes    int
	createErr error
	getErr    error
	updateErr error
	// deleteBeforeUpdate simulates a concurrent delete between read and write
	deleteBeforeUpdate bool
}

func newMemStore(orders ...models.Order) *memStore {
	s := &memStore{orders: make(map[string]models.Order)}
	for _, o := range orders {
		s.orders[o.OrderID] = o
	}
	return s
}

func (s *memStore) CreateOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.orders[order.OrderID]; ok {
		return fmt.Errorf("%w: %s", store.ErrDuplicateOrderID, order.OrderID)
	}
	order.ID = int64(len(s.orders) + 1)
	s.orders[order.OrderID] = *order
	return nil
}

func (s *memStore) GetOrderByCode(_ context.Context, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderID)
	}
	return &o, nil
}

func (s *memStore) GetOrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error) {
	o, err := s.GetOrderByCode(ctx, orderID)
	if err != nil {
		return "", err
	}
	return o.Status, nil
}

func (s *memStore) UpdateOrderStatus(_ context.Context, orderID string, status models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if s.deleteBeforeUpdate {
		delete(s.orders, orderID)
	}
	o, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderID)
	}
	o.Status = status
	s.orders[orderID] = o
	s.writes++
	return nil
}

func (s *memStore) ListOrdersByUser(_ context.Context, userID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) order(orderID string) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[orderID]
}

type memCache struct {
	mu       sync.Mutex
	statuses map[string]models.OrderStatus
	getErr   error
	setErr   error
	deletes  int
}

func newMemCache() *memCache {
	return &memCache{statuses: make(map[string]models.OrderStatus)}
}

func (c *memCache) GetOrderStatus(_ context.Context, orderID string) (models.OrderStatus, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	s, ok := c.statuses[orderID]
	return s, ok, nil
}

func (c *memCache) SetOrderStatus(_ context.Context, orderID string, status models.OrderStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.statuses[orderID] = status
	return nil
}

func (c *memCache) DeleteOrderStatus(_ context.Context, orderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.statuses, orderID)
	c.deletes++
	return nil
}

func (c *memCache) status(orderID string) (models.OrderStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.statuses[orderID]
	return st, ok
}

// interleavingStore runs afterStatusRead once, right after a status read and
// before the caller acts on the value it got
type interleavingStore struct {
	*memStore
	afterStatusRead func()
}

func (s *interleavingStore) GetOrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error) {
	status, err := s.memStore.GetOrderStatus(ctx, orderID)
	if hook := s.afterStatusRead; hook != nil {
		s.afterStatusRead = nil
		hook()
	}
	return status, err
}

type recordingPublisher struct {
	mu        sync.Mutex
	created   []*models.OrderCreatedEvent
	paid      []*models.OrderPaidEvent
	underpaid []*models.PaymentUnderpaidEvent
	err       error
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, e *models.OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e)
	return p.err
}

func (p *recordingPublisher) PublishOrderPaid(_ context.Context, e *models.OrderPaidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paid = append(p.paid, e)
	return p.err
}

func (p *recordingPublisher) PublishPaymentUnderpaid(_ context.Context, e *models.PaymentUnderpaidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.underpaid = append(p.underpaid, e)
	return p.err
}

func pendingOrder(code string, total int64) models.Order {
	return models.Order{
		OrderID:       code,
		UserID:        "user-1",
		PaymentMethod: models.PaymentMethodQR.Display(),
		Total:         total,
		Status:        models.OrderStatusPending,
	}
}
