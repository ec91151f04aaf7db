package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/ordercode"
	"sacviet-order-service/internal/store"
	"sacviet-order-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidOrder is returned for requests that cannot become an order
	ErrInvalidOrder = errors.New("invalid order")
	// ErrOrderCodeExhausted is returned when every generated code collided
	ErrOrderCodeExhausted = errors.New("could not allocate a unique order code")
)

const defaultCodeAttempts = 5

// OrderService handles order creation and reads
type OrderService struct {
	store        OrderStore
	cache        StatusCache
	events       EventPublisher
	logger       *zap.Logger
	codeAttempts int
	newCode      func() string
	now          func() time.Time
}

// NewOrderService creates a new order service. cache and events may be nil.
func NewOrderService(store OrderStore, cache StatusCache, events EventPublisher, codeAttempts int) *OrderService {
	if codeAttempts <= 0 {
		codeAttempts = defaultCodeAttempts
	}
	return &OrderService{
		store:        store,
		cache:        cache,
		events:       events,
		logger:       util.GetLogger(),
		codeAttempts: codeAttempts,
		newCode:      func() string { return ordercode.Generate(nil) },
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CustomerInfoRequest holds the buyer's contact form
type CustomerInfoRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address" binding:"required"`
	Note    string `json:"note"`
}

// OrderItemRequest represents a cart line submitted at checkout
type OrderItemRequest struct {
	ProductID string `json:"id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Ethnic    string `json:"ethnic"`
	Image     string `json:"img"`
	Price     string `json:"price"`
	UnitPrice int64  `json:"priceValue" binding:"min=0"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest represents a checkout submission
type CreateOrderRequest struct {
	UserID        string              `json:"user_id" binding:"required"`
	CustomerInfo  CustomerInfoRequest `json:"customer_info" binding:"required"`
	PaymentMethod string              `json:"payment_method" binding:"required,oneof=cod qr"`
	Items         []OrderItemRequest  `json:"items" binding:"required,min=1,dive"`
}

// CreateOrderResponse carries the stored order and the text the buyer copies
type CreateOrderResponse struct {
	Order        *models.Order `json:"order"`
	Summary      string        `json:"summary"`
	TransferMemo string        `json:"transfer_memo,omitempty"`
}

// CreateOrder stores a new pending order under a freshly generated code
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	method, items, err := s.validate(req)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_request").Inc()
		return nil, err
	}

	order := &models.Order{
		UserID: req.UserID,
		CustomerInfo: models.CustomerInfo{
			Name:    req.CustomerInfo.Name,
			Phone:   req.CustomerInfo.Phone,
			Address: req.CustomerInfo.Address,
			Note:    req.CustomerInfo.Note,
		},
		PaymentMethod: method.Display(),
		Total:         items.Total(),
		Items:         items,
		Status:        models.OrderStatusPending,
		CreatedAt:     s.now(),
	}

	if err := s.insertWithFreshCode(ctx, order); err != nil {
		return nil, err
	}

	util.OrdersCreatedTotal.WithLabelValues(string(method)).Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.String("user_id", order.UserID),
		zap.Int64("total", order.Total))

	if s.events != nil {
		event := &models.OrderCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderCreated,
				Timestamp: time.Now(),
			},
			OrderID:       order.OrderID,
			UserID:        order.UserID,
			PaymentMethod: string(method),
			Total:         order.Total,
			ItemCount:     len(order.Items),
		}
		if err := s.events.PublishOrderCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
		}
	}

	resp := &CreateOrderResponse{
		Order:   order,
		Summary: BuildOrderSummary(order),
	}
	if method == models.PaymentMethodQR {
		resp.TransferMemo = order.OrderID
	}
	return resp, nil
}

// insertWithFreshCode retries with a new code while the store reports a duplicate
func (s *OrderService) insertWithFreshCode(ctx context.Context, order *models.Order) error {
	for attempt := 1; attempt <= s.codeAttempts; attempt++ {
		order.OrderID = s.newCode()

		err := s.store.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if errors.Is(err, store.ErrDuplicateOrderID) {
			util.OrderCodeCollisionsTotal.Inc()
			s.logger.Warn("Order code collision, regenerating",
				zap.String("order_id", order.OrderID),
				zap.Int("attempt", attempt))
			continue
		}

		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersFailedTotal.WithLabelValues("code_exhausted").Inc()
	return fmt.Errorf("%w after %d attempts", ErrOrderCodeExhausted, s.codeAttempts)
}

func (s *OrderService) validate(req *CreateOrderRequest) (models.PaymentMethod, models.OrderItems, error) {
	if req.UserID == "" {
		return "", nil, fmt.Errorf("%w: user_id is required", ErrInvalidOrder)
	}

	method, err := models.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	if len(req.Items) == 0 {
		return "", nil, fmt.Errorf("%w: cart is empty", ErrInvalidOrder)
	}

	items := make(models.OrderItems, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 || item.UnitPrice < 0 {
			return "", nil, fmt.Errorf("%w: bad quantity or price for product %s", ErrInvalidOrder, item.ProductID)
		}
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Ethnic:    item.Ethnic,
			Image:     item.Image,
			Price:     item.Price,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	return method, items, nil
}

// GetOrder retrieves an order by code
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	return s.store.GetOrderByCode(ctx, orderID)
}

// GetOrderStatus serves the status from cache, falling back to the store.
// A pending read is never cached: the webhook may flip the order to paid
// between this read and a cache write.
func (s *OrderService) GetOrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrderStatus")
	defer span.End()

	if s.cache != nil {
		status, ok, err := s.cache.GetOrderStatus(ctx, orderID)
		switch {
		case err != nil:
			util.StatusCacheLookupsTotal.WithLabelValues("error").Inc()
			s.logger.Warn("Status cache read failed", zap.String("order_id", orderID), zap.Error(err))
		case ok:
			util.StatusCacheLookupsTotal.WithLabelValues("hit").Inc()
			return status, nil
		default:
			util.StatusCacheLookupsTotal.WithLabelValues("miss").Inc()
		}
	}

	status, err := s.store.GetOrderStatus(ctx, orderID)
	if err != nil {
		return "", err
	}

	if s.cache != nil && status == models.OrderStatusPaid {
		if err := s.cache.SetOrderStatus(ctx, orderID, status); err != nil {
			s.logger.Warn("Failed to cache order status", zap.String("order_id", orderID), zap.Error(err))
		}
	}
	return status, nil
}

// ListOrders retrieves a user's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	return s.store.ListOrdersByUser(ctx, userID)
}
