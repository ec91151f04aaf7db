package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	}, []string{"payment_method"})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of order creations that failed",
	}, []string{"reason"})

	OrderCodeCollisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_code_collisions_total",
		Help: "Total number of generated order codes that were already taken",
	})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of status writes to paid from the payment webhook",
	})

	WebhookOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_outcomes_total",
		Help: "Payment webhook notifications by outcome",
	}, []string{"outcome"})

	UnderpaidTransfersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_underpaid_transfers_total",
		Help: "Transfers smaller than the order total that were still approved",
	})

	StatusCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_cache_lookups_total",
		Help: "Order status cache lookups by result",
	}, []string{"result"})

	WebhookProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_webhook_latency_seconds",
		Help:    "Latency of payment webhook reconciliation",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
