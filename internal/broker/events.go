package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, event.OrderID, event)
}

// PublishOrderPaid publishes OrderPaid event
func (ep *EventPublisher) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	return ep.producer.PublishEvent(ctx, event.OrderID, event)
}

// PublishPaymentUnderpaid publishes PaymentUnderpaid event
func (ep *EventPublisher) PublishPaymentUnderpaid(ctx context.Context, event *models.PaymentUnderpaidEvent) error {
	return ep.producer.PublishEvent(ctx, event.OrderID, event)
}

// EventHandler routes incoming order events to registered callbacks
type EventHandler struct {
	onOrderPaid        func(context.Context, *models.OrderPaidEvent) error
	onPaymentUnderpaid func(context.Context, *models.PaymentUnderpaidEvent) error
	logger             *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnOrderPaid registers a handler for OrderPaid events
func (eh *EventHandler) OnOrderPaid(handler func(context.Context, *models.OrderPaidEvent) error) {
	eh.onOrderPaid = handler
}

// OnPaymentUnderpaid registers a handler for PaymentUnderpaid events
func (eh *EventHandler) OnPaymentUnderpaid(handler func(context.Context, *models.PaymentUnderpaidEvent) error) {
	eh.onPaymentUnderpaid = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeOrderPaid:
		if eh.onOrderPaid != nil {
			var event models.OrderPaidEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderPaid event: %w", err)
			}
			return eh.onOrderPaid(ctx, &event)
		}

	case models.EventTypePaymentUnderpaid:
		if eh.onPaymentUnderpaid != nil {
			var event models.PaymentUnderpaidEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PaymentUnderpaid event: %w", err)
			}
			return eh.onPaymentUnderpaid(ctx, &event)
		}
	}

	return nil
}
