package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrmenu_orders_created_total",
		Help: "Total number of orders created",
	}, []string{"channel"})

	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrmenu_orders_rejected_total",
		Help: "Total number of order submissions rejected",
	}, []string{"code"})

	OrdersRolledBackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrmenu_orders_rolled_back_total",
		Help: "Total number of orders deleted after line items failed to persist",
	})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrmenu_order_transitions_total",
		Help: "Total number of order status transitions",
	}, []string{"status"})

	AvailabilityCheckLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qrmenu_availability_check_latency_seconds",
		Help:    "Latency of the product availability gate",
		Buckets: prometheus.DefBuckets,
	})

	CheckoutSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrmenu_checkout_sessions_total",
		Help: "Total number of checkout session attempts",
	}, []string{"result"})

	PaymentVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrmenu_payment_verifications_total",
		Help: "Total number of payment verifications",
	}, []string{"result"})

	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qrmenu_gateway_latency_seconds",
		Help:    "Latency of payment gateway calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	WaiterCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrmenu_waiter_calls_total",
		Help: "Total number of waiter calls",
	}, []string{"type"})

	WaiterCallsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrmenu_waiter_calls_completed_total",
		Help: "Total number of waiter call completions",
	}, []string{"result"})

	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qrmenu_feed_subscribers",
		Help: "Number of live feed subscribers",
	})

	FeedRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrmenu_feed_refreshes_total",
		Help: "Total number of live feed view rebuilds",
	}, []string{"mode"})

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
