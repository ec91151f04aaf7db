package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sacviet-order-service/internal/models"
)

// CreateOrder inserts a new order. The order code must be unique.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (order_id, user_id, customer_info, payment_method, total, items, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		order.OrderID, order.UserID, order.CustomerInfo, order.PaymentMethod,
		order.Total, order.Items, order.Status, order.CreatedAt)

	if err := row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateOrderID, order.OrderID)
		}
		return err
	}
	return nil
}

// GetOrderByCode retrieves an order by its SN-###### code
func (s *Store) GetOrderByCode(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE order_id = $1", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderStatus reads only the status column
func (s *Store) GetOrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error) {
	var status models.OrderStatus
	err := s.db.GetContext(ctx, &status, "SELECT status FROM orders WHERE order_id = $1", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return status, err
}

// UpdateOrderStatus overwrites the status of one order. Returns ErrOrderNotFound
// when no row matched, e.g. the order was deleted after it was read.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE order_id = $2",
		status, orderID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return nil
}

// ListOrdersByUser retrieves a user's orders, newest first
func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}
