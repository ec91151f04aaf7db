package service

import (
	"fmt"
	"strconv"
	"strings"

	"sacviet-order-service/internal/models"
)

const summaryRule = "--------------------------------\n"

// BuildOrderSummary renders the order text the buyer pastes into the shop's messenger chat
func BuildOrderSummary(order *models.Order) string {
	var b strings.Builder

	b.WriteString("🛒 *ĐƠN ĐẶT HÀNG MỚI TỪ SẮC VIỆT*\n")
	fmt.Fprintf(&b, "🔖 Mã đơn: %s\n", order.OrderID)
	b.WriteString(summaryRule)
	fmt.Fprintf(&b, "👤 Khách hàng: %s\n", order.CustomerInfo.Name)
	fmt.Fprintf(&b, "📞 SĐT: %s\n", order.CustomerInfo.Phone)
	fmt.Fprintf(&b, "📍 Địa chỉ: %s\n", order.CustomerInfo.Address)
	if order.CustomerInfo.Note != "" {
		fmt.Fprintf(&b, "📝 Ghi chú: %s\n", order.CustomerInfo.Note)
	}
	fmt.Fprintf(&b, "💳 Phương thức: %s\n", order.PaymentMethod)
	b.WriteString(summaryRule)
	for i, item := range order.Items {
		price := item.Price
		if price == "" {
			price = FormatVND(item.UnitPrice) + "đ"
		}
		fmt.Fprintf(&b, "%d. %s (%s) \n   SL: %d x %s\n", i+1, item.Name, item.Ethnic, item.Quantity, price)
	}
	b.WriteString(summaryRule)
	fmt.Fprintf(&b, "💰 *TỔNG CỘNG: %s VNĐ*\n", FormatVND(order.Total))

	return b.String()
}

// FormatVND groups thousands with dots, vi-VN style: 250000 -> "250.000"
func FormatVND(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}
