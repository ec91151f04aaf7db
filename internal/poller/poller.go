// Package poller watches an order's status after checkout until the payment
// webhook has marked it paid.
package poller

import (
	"context"
	"errors"
	"time"

	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/util"

	"go.uber.org/zap"
)

// DefaultInterval matches the checkout screen's refresh rate
const DefaultInterval = 3 * time.Second

// ErrPaymentTimedOut is returned when MaxAttempts reads never observed paid
var ErrPaymentTimedOut = errors.New("payment timed out")

// StatusReader reads the current status of an order
type StatusReader interface {
	OrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error)
}

// Result reports how polling ended
type Result struct {
	OrderID  string
	Status   models.OrderStatus
	Attempts int
}

// Poller re-reads an order's status on a fixed interval
type Poller struct {
	reader      StatusReader
	interval    time.Duration
	maxAttempts int
	logger      *zap.Logger
}

// New creates a poller. maxAttempts <= 0 polls until paid or ctx is cancelled.
func New(reader StatusReader, interval time.Duration, maxAttempts int) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		reader:      reader,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      util.GetLogger(),
	}
}

// Wait blocks until the order is paid, ctx is done, or the attempt budget runs out.
//
// Cash-on-delivery orders are treated as settled without reading anything.
// One read happens per tick and reads never overlap; a failed read is logged
// and retried on the next tick. Cancelling ctx is how a caller tears the
// watch down.
func (p *Poller) Wait(ctx context.Context, orderID string, method models.PaymentMethod) (*Result, error) {
	if method == models.PaymentMethodCOD {
		return &Result{OrderID: orderID, Status: models.OrderStatusPaid}, nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return &Result{OrderID: orderID, Status: models.OrderStatusPending, Attempts: attempts}, ctx.Err()
		case <-ticker.C:
		}

		attempts++
		status, err := p.reader.OrderStatus(ctx, orderID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return &Result{OrderID: orderID, Status: models.OrderStatusPending, Attempts: attempts}, ctx.Err()
			}
			p.logger.Warn("Order status read failed, retrying next tick",
				zap.String("order_id", orderID),
				zap.Int("attempt", attempts),
				zap.Error(err))
		case status == models.OrderStatusPaid:
			p.logger.Info("Payment observed",
				zap.String("order_id", orderID),
				zap.Int("attempts", attempts))
			return &Result{OrderID: orderID, Status: status, Attempts: attempts}, nil
		}

		if p.maxAttempts > 0 && attempts >= p.maxAttempts {
			return &Result{OrderID: orderID, Status: models.OrderStatusPending, Attempts: attempts}, ErrPaymentTimedOut
		}
	}
}
