package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders placed by customers",
	})

	OrdersConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_confirmed_total",
		Help: "Total number of orders confirmed by farmers",
	})

	OrdersRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Total number of orders rejected by farmers",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order placements",
	}, []string{"reason"})

	ConfirmationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_confirmations_failed_total",
		Help: "Total number of failed confirmation attempts",
	}, []string{"reason"})

	ConfirmationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_confirmation_latency_seconds",
		Help:    "Latency of the transactional confirmation path",
		Buckets: prometheus.DefBuckets,
	})

	VendorClaimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vendor_claims_total",
		Help: "Total number of vendor claim attempts",
	})

	ClaimConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vendor_claim_conflicts_total",
		Help: "Total number of claim attempts lost to another vendor",
	})

	DeliveriesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deliveries_completed_total",
		Help: "Total number of orders marked delivered",
	})

	ReceiptsPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipts_paid_total",
		Help: "Total number of receipts settled by customers",
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
