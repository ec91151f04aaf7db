package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"sacviet-order-service/internal/models"
	"sacviet-order-service/internal/ordercode"
	"sacviet-order-service/internal/service"
	"sacviet-order-service/internal/store"
	"sacviet-order-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	orderService   *service.OrderService
	paymentService *service.PaymentService
	webhookAPIKey  string
	checks         map[string]ReadinessCheck
	logger         *zap.Logger
}

// NewHandler creates a new HTTP handler. An empty webhookAPIKey disables the
// webhook Authorization check.
func NewHandler(orderService *service.OrderService, paymentService *service.PaymentService, webhookAPIKey string) *Handler {
	return &Handler{
		orderService:   orderService,
		paymentService: paymentService,
		webhookAPIKey:  webhookAPIKey,
		checks:         make(map[string]ReadinessCheck),
		logger:         util.GetLogger(),
	}
}

// AddReadinessCheck registers a dependency probed by /ready
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method Not Allowed"})
	})

	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/api/webhook", h.paymentWebhook)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:order_id", h.getOrder)
		v1.GET("/orders/:order_id/status", h.getOrderStatus)
		v1.GET("/users/:user_id/orders", h.listUserOrders)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck probes every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createOrder handles checkout submissions
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrder) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid order",
				"details": err.Error(),
			})
			return
		}
		h.logger.Error("Failed to create order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create order",
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getOrder handles get order by code
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.orderReadError(c, orderID, err)
		return
	}

	c.JSON(http.StatusOK, newOrderView(*order))
}

// getOrderStatus serves the lightweight status read used by checkout polling
func (h *Handler) getOrderStatus(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	status, err := h.orderService.GetOrderStatus(c.Request.Context(), orderID)
	if err != nil {
		h.orderReadError(c, orderID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"status":   status,
	})
}

// listUserOrders returns a user's order history, newest first
func (h *Handler) listUserOrders(c *gin.Context) {
	userID := c.Param("user_id")

	orders, err := h.orderService.ListOrders(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list orders",
		})
		return
	}

	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, newOrderView(order))
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": views,
	})
}

func (h *Handler) orderReadError(c *gin.Context, orderID string, err error) {
	if errors.Is(err, store.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
		return
	}
	h.logger.Error("Failed to read order", zap.String("order_id", orderID), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to read order",
	})
}

func orderIDParam(c *gin.Context) (string, bool) {
	orderID := c.Param("order_id")
	if !ordercode.Valid(orderID) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return "", false
	}
	return orderID, true
}

// OrderView is an order as shown in the buyer's order history
type OrderView struct {
	models.Order
	StatusLabel string `json:"status_label"`
}

func newOrderView(order models.Order) OrderView {
	return OrderView{Order: order, StatusLabel: order.Status.Label()}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
