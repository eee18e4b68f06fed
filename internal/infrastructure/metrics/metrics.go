package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconcileOutcomes counts reconciliation results by outcome:
	// created, matched, accepted, not_found, error.
	ReconcileOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerpay",
		Subsystem: "shopify",
		Name:      "reconcile_outcomes_total",
		Help:      "Reconciliation requests by outcome.",
	}, []string{"outcome"})

	// InvoicesCreated counts invoices created for Shopify orders.
	InvoicesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledgerpay",
		Subsystem: "shopify",
		Name:      "invoices_created_total",
		Help:      "Invoices created for Shopify orders.",
	})

	// ShopifyCallDuration observes Shopify Admin API call latency.
	ShopifyCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledgerpay",
		Subsystem: "shopify",
		Name:      "api_call_duration_seconds",
		Help:      "Shopify Admin API call duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// RateLimited counts requests rejected by the remote-address limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledgerpay",
		Subsystem: "shopify",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the remote-address rate limiter.",
	})
)
