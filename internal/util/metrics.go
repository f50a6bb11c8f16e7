package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartUpsertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_upserts_total",
		Help: "Total number of cart line writes (create, update, delete)",
	})

	CheckoutsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_completed_total",
		Help: "Total number of orders created at checkout",
	})

	CheckoutsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_failed_total",
		Help: "Total number of failed checkout attempts",
	}, []string{"reason"})

	WebhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Total number of payment webhook deliveries by outcome",
	}, []string{"outcome"})

	PaymentsSuccessfulTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_successful_total",
		Help: "Total number of orders reconciled as Successful",
	})

	PaymentsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_failed_total",
		Help: "Total number of orders reconciled as Failed",
	}, []string{"reason"})

	ProviderVerifyLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "provider_verify_latency_seconds",
		Help:    "Latency of payment provider verification calls",
		Buckets: prometheus.DefBuckets,
	})

	MailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mails_sent_total",
		Help: "Total number of notification emails by result",
	}, []string{"result"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of checkout transactions",
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
