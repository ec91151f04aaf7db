package worker

import (
	"context"

	"sacviet-order-service/internal/broker"
	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/util"

	"go.uber.org/zap"
)

// Notifier delivers post-payment messages to buyers and the shop
type Notifier interface {
	PaymentConfirmed(ctx context.Context, event *models.OrderPaidEvent) error
	PaymentShortfall(ctx context.Context, event *models.PaymentUnderpaidEvent) error
}

// LogNotifier writes notifications to the service log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier backed by the global logger
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: util.GetLogger()}
}

// PaymentConfirmed logs the buyer's payment confirmation
func (n *LogNotifier) PaymentConfirmed(_ context.Context, event *models.OrderPaidEvent) error {
	n.logger.Info("Sending payment confirmation",
		zap.String("order_id", event.OrderID),
		zap.String("user_id", event.UserID),
		zap.Int64("amount", event.TransferAmount))
	return nil
}

// PaymentShortfall alerts the shop that an approved order was underpaid
func (n *LogNotifier) PaymentShortfall(_ context.Context, event *models.PaymentUnderpaidEvent) error {
	n.logger.Warn("Approved order was underpaid",
		zap.String("order_id", event.OrderID),
		zap.Int64("total", event.Total),
		zap.Int64("received", event.TransferAmount),
		zap.Int64("shortfall", event.Shortfall))
	return nil
}

// NotificationWorker consumes order events and fans them out to a Notifier
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, notifier Notifier) *NotificationWorker {
	return &NotificationWorker{
		consumer:     consumer,
		eventHandler: NewEventRouter(notifier),
		logger:       util.GetLogger(),
	}
}

// NewEventRouter wires a Notifier to the order event types it handles
func NewEventRouter(notifier Notifier) *broker.EventHandler {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPaid(notifier.PaymentConfirmed)
	eventHandler.OnPaymentUnderpaid(notifier.PaymentShortfall)
	return eventHandler
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}
