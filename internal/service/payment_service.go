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

// Outcome classifies how a transfer notification was handled
type Outcome string

// Reconciliation outcomes. All of them are acknowledgments; only a returned
// error means the gateway should retry.
const (
	OutcomeSkippedOutgoing Outcome = "skipped_outgoing"
	OutcomeNoOrderCode     Outcome = "no_order_code"
	OutcomeOrderNotFound   Outcome = "order_not_found"
	OutcomePaid            Outcome = "paid"
)

// ReconcileResult describes a handled notification
type ReconcileResult struct {
	Outcome   Outcome `json:"outcome"`
	OrderID   string  `json:"order_id,omitempty"`
	Underpaid bool    `json:"underpaid,omitempty"`
}

// PaymentService reconciles bank-transfer notifications with pending orders
type PaymentService struct {
	store  OrderStore
	cache  StatusCache
	events EventPublisher
	logger *zap.Logger
}

// NewPaymentService creates a new payment service. cache and events may be nil.
func NewPaymentService(store OrderStore, cache StatusCache, events EventPublisher) *PaymentService {
	return &PaymentService{
		store:  store,
		cache:  cache,
		events: events,
		logger: util.GetLogger(),
	}
}

// HandleTransfer matches a transfer memo to an order and marks the order paid.
//
// Underpaid transfers are approved anyway; the shortfall is only logged and
// published. The write is an unconditional overwrite to paid, so duplicate
// deliveries of the same notification converge on the same state.
func (ps *PaymentService) HandleTransfer(ctx context.Context, n *models.TransferNotification) (*ReconcileResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.HandleTransfer")
	defer span.End()

	start := time.Now()
	defer func() {
		util.WebhookProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	result, err := ps.reconcile(ctx, n)
	if err != nil {
		util.WebhookOutcomesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	util.WebhookOutcomesTotal.WithLabelValues(string(result.Outcome)).Inc()
	return result, nil
}

func (ps *PaymentService) reconcile(ctx context.Context, n *models.TransferNotification) (*ReconcileResult, error) {
	if n.TransferType != models.TransferIn {
		ps.logger.Info("Skipping outgoing transfer",
			zap.String("transfer_type", string(n.TransferType)),
			zap.String("reference_code", n.ReferenceCode))
		return &ReconcileResult{Outcome: OutcomeSkippedOutgoing}, nil
	}

	orderID, ok := ordercode.Extract(n.Content)
	if !ok {
		ps.logger.Info("No order code in transfer content",
			zap.String("content", n.Content),
			zap.String("reference_code", n.ReferenceCode))
		return &ReconcileResult{Outcome: OutcomeNoOrderCode}, nil
	}

	order, err := ps.store.GetOrderByCode(ctx, orderID)
	if errors.Is(err, store.ErrOrderNotFound) {
		ps.logger.Info("Transfer references unknown order", zap.String("order_id", orderID))
		return &ReconcileResult{Outcome: OutcomeOrderNotFound, OrderID: orderID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}

	if order.Status == models.OrderStatusPaid {
		ps.logger.Info("Repeated notification for paid order",
			zap.String("order_id", orderID),
			zap.String("reference_code", n.ReferenceCode))
	}

	result := &ReconcileResult{Outcome: OutcomePaid, OrderID: orderID}

	// Policy: approve regardless of amount. A shortfall is reported, not enforced.
	result.Underpaid = n.TransferAmount < order.Total

	if err := ps.store.UpdateOrderStatus(ctx, orderID, models.OrderStatusPaid); err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			ps.logger.Warn("Order vanished before status update", zap.String("order_id", orderID))
			return &ReconcileResult{Outcome: OutcomeOrderNotFound, OrderID: orderID}, nil
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if result.Underpaid {
		ps.reportUnderpayment(ctx, order, n.TransferAmount)
	}

	util.OrdersPaidTotal.Inc()
	ps.logger.Info("Order marked paid",
		zap.String("order_id", orderID),
		zap.Int64("transfer_amount", n.TransferAmount),
		zap.Int64("total", order.Total))

	if ps.cache != nil {
		if err := ps.cache.SetOrderStatus(ctx, orderID, models.OrderStatusPaid); err != nil {
			ps.logger.Warn("Failed to cache order status", zap.String("order_id", orderID), zap.Error(err))
			// Readers must fall through to the store rather than see an older entry.
			if err := ps.cache.DeleteOrderStatus(ctx, orderID); err != nil {
				ps.logger.Error("Failed to evict order status", zap.String("order_id", orderID), zap.Error(err))
			}
		}
	}

	if ps.events != nil {
		event := &models.OrderPaidEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderPaid,
				Timestamp: time.Now(),
			},
			OrderID:        orderID,
			UserID:         order.UserID,
			Total:          order.Total,
			TransferAmount: n.TransferAmount,
			ReferenceCode:  n.ReferenceCode,
		}
		if err := ps.events.PublishOrderPaid(ctx, event); err != nil {
			ps.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
		}
	}

	return result, nil
}

func (ps *PaymentService) reportUnderpayment(ctx context.Context, order *models.Order, received int64) {
	util.UnderpaidTransfersTotal.Inc()
	ps.logger.Warn("Transfer is less than order total, approving anyway",
		zap.String("order_id", order.OrderID),
		zap.Int64("total", order.Total),
		zap.Int64("received", received))

	if ps.events == nil {
		return
	}
	event := &models.PaymentUnderpaidEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentUnderpaid,
			Timestamp: time.Now(),
		},
		OrderID:        order.OrderID,
		Total:          order.Total,
		TransferAmount: received,
		Shortfall:      order.Total - received,
	}
	if err := ps.events.PublishPaymentUnderpaid(ctx, event); err != nil {
		ps.logger.Error("Failed to publish PaymentUnderpaid event", zap.Error(err))
	}
}
