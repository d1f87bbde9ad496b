package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutSessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boxoffice_checkout_sessions_created_total",
			Help: "Stripe checkout sessions successfully created",
		},
	)

	CheckoutRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_checkout_rejections_total",
			Help: "Checkout requests rejected before session creation",
		},
		[]string{"reason"},
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_webhook_events_total",
			Help: "Webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	SalesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boxoffice_sales_created_total",
			Help: "Sale rows materialized by fulfillment",
		},
	)

	StockConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boxoffice_stock_conflicts_total",
			Help: "Ticket types skipped at fulfillment because stock ran out after payment",
		},
	)

	CheckIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_check_ins_total",
			Help: "QR check-in attempts by result",
		},
		[]string{"result"},
	)

	FulfillmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "boxoffice_fulfillment_duration_seconds",
			Help:    "Time spent materializing sales for a completed session",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)
)
