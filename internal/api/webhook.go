package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var outcomeMessages = map[service.Outcome]string{
	service.OutcomeSkippedOutgoing: "Bỏ qua giao dịch chuyển tiền ra",
	service.OutcomeNoOrderCode:     "Không tìm thấy mã đơn hàng Sắc Việt trong nội dung",
	service.OutcomeOrderNotFound:   "Đơn hàng không tồn tại",
	service.OutcomePaid:            "Đã duyệt đơn tự động!",
}

// paymentWebhook receives bank-transfer notifications from the payment gateway.
// Every handled outcome is acknowledged with 200 so the gateway stops delivering;
// only a storage failure answers 500 and invites a retry.
func (h *Handler) paymentWebhook(c *gin.Context) {
	if !h.authorizedWebhook(c.GetHeader("Authorization")) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var notification models.TransferNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.paymentService.HandleTransfer(c.Request.Context(), &notification)
	if err != nil {
		h.logger.Error("Webhook error",
			zap.String("content", notification.Content),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"outcome":  result.Outcome,
		"order_id": result.OrderID,
		"message":  outcomeMessages[result.Outcome],
	})
}

// authorizedWebhook accepts "Apikey <key>" when a key is configured
func (h *Handler) authorizedWebhook(header string) bool {
	if h.webhookAPIKey == "" {
		return true
	}
	const scheme = "Apikey "
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return false
	}
	given := strings.TrimSpace(header[len(scheme):])
	return subtle.ConstantTimeCompare([]byte(given), []byte(h.webhookAPIKey)) == 1
}
