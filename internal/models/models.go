package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

// Order statuses. The only transition is pending -> paid.
const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
)

// Label returns the Vietnamese display label shown to buyers
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Đang xử lý"
	case OrderStatusPaid:
		return "Đã thanh toán"
	default:
		return string(s)
	}
}

// PaymentMethod is the buyer's chosen way to pay
type PaymentMethod string

// Payment methods
const (
	PaymentMethodCOD PaymentMethod = "cod"
	PaymentMethodQR  PaymentMethod = "qr"
)

const (
	paymentTextCOD = "Thanh toán khi nhận hàng (COD)"
	paymentTextQR  = "Chuyển khoản (QR)"
)

// Display returns the display string persisted with the order
func (m PaymentMethod) Display() string {
	switch m {
	case PaymentMethodCOD:
		return paymentTextCOD
	case PaymentMethodQR:
		return paymentTextQR
	default:
		return string(m)
	}
}

// ParsePaymentMethod accepts either the short code or the display string
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch s {
	case string(PaymentMethodCOD), paymentTextCOD:
		return PaymentMethodCOD, nil
	case string(PaymentMethodQR), paymentTextQR:
		return PaymentMethodQR, nil
	}
	return "", fmt.Errorf("unknown payment method: %q", s)
}

// CustomerInfo holds buyer contact and delivery details
type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Note    string `json:"note,omitempty"`
}

// Value implements driver.Valuer for the JSONB column
func (c CustomerInfo) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for the JSONB column
func (c *CustomerInfo) Scan(src interface{}) error {
	return scanJSON(src, c)
}

// OrderItem is a line item snapshot taken at checkout
type OrderItem struct {
	ProductID string `json:"id"`
	Name      string `json:"name"`
	Ethnic    string `json:"ethnic,omitempty"`
	Image     string `json:"img,omitempty"`
	Price     string `json:"price,omitempty"`
	UnitPrice int64  `json:"priceValue"`
	Quantity  int    `json:"quantity"`
}

// OrderItems is the JSONB-backed item list
type OrderItems []OrderItem

// Value implements driver.Valuer for the JSONB column
func (items OrderItems) Value() (driver.Value, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(items)
}

// Scan implements sql.Scanner for the JSONB column
func (items *OrderItems) Scan(src interface{}) error {
	return scanJSON(src, items)
}

// Total sums quantity times unit price over all items
func (items OrderItems) Total() int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// Order represents a customer order
type Order struct {
	ID            int64        `db:"id" json:"-"`
	OrderID       string       `db:"order_id" json:"order_id"`
	UserID        string       `db:"user_id" json:"user_id"`
	CustomerInfo  CustomerInfo `db:"customer_info" json:"customer_info"`
	PaymentMethod string       `db:"payment_method" json:"payment_method"`
	Total         int64        `db:"total" json:"total"`
	Items         OrderItems   `db:"items" json:"items"`
	Status        OrderStatus  `db:"status" json:"status"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"-"`
}

// TransferType is the money direction reported by the payment gateway
type TransferType string

// Transfer directions
const (
	TransferIn  TransferType = "in"
	TransferOut TransferType = "out"
)

// TransferNotification is the webhook payload sent by the bank-transfer gateway
type TransferNotification struct {
	ID              int64        `json:"id"`
	Gateway         string       `json:"gateway"`
	TransactionDate string       `json:"transactionDate"`
	AccountNumber   string       `json:"accountNumber"`
	Content         string       `json:"content"`
	TransferType    TransferType `json:"transferType"`
	TransferAmount  int64        `json:"transferAmount"`
	ReferenceCode   string       `json:"referenceCode"`
	Description     string       `json:"description"`
}

// UnmarshalJSON accepts any JSON number for transferAmount, e.g. 250000.0,
// rounding it to whole VND
func (n *TransferNotification) UnmarshalJSON(data []byte) error {
	type plain TransferNotification
	aux := struct {
		*plain
		TransferAmount json.Number `json:"transferAmount"`
	}{plain: (*plain)(n)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	n.TransferAmount = 0
	if aux.TransferAmount == "" {
		return nil
	}
	if v, err := aux.TransferAmount.Int64(); err == nil {
		n.TransferAmount = v
		return nil
	}
	f, err := aux.TransferAmount.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return fmt.Errorf("invalid transferAmount %q", aux.TransferAmount)
	}
	n.TransferAmount = int64(math.Round(f))
	return nil
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported JSON column type")
	}
}
