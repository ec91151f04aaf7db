package models

import "time"

// Event types
const (
	EventTypeOrderCreated     = "ORDER_CREATED"
	EventTypeOrderPaid        = "ORDER_PAID"
	EventTypePaymentUnderpaid = "PAYMENT_UNDERPAID"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when an order is stored as pending
type OrderCreatedEvent struct {
	BaseEvent
	OrderID       string `json:"order_id"`
	UserID        string `json:"user_id"`
	PaymentMethod string `json:"payment_method"`
	Total         int64  `json:"total"`
	ItemCount     int    `json:"item_count"`
}

// OrderPaidEvent published when a transfer flips an order to paid
type OrderPaidEvent struct {
	BaseEvent
	OrderID        string `json:"order_id"`
	UserID         string `json:"user_id"`
	Total          int64  `json:"total"`
	TransferAmount int64  `json:"transfer_amount"`
	ReferenceCode  string `json:"reference_code,omitempty"`
}

// PaymentUnderpaidEvent published when a transfer is smaller than the order total.
// The order is still approved.
type PaymentUnderpaidEvent struct {
	BaseEvent
	OrderID        string `json:"order_id"`
	Total          int64  `json:"total"`
	TransferAmount int64  `json:"transfer_amount"`
	Shortfall      int64  `json:"shortfall"`
}
