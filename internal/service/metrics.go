package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Total number of orders created.",
	})

	ordersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "cancelled_total",
		Help:      "Total number of orders cancelled.",
	})

	paymentsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "payments",
		Name:      "initiated_total",
		Help:      "Total number of payment attempts initiated.",
	}, []string{"gateway"})

	paymentsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "payments",
		Name:      "completed_total",
		Help:      "Total number of payments reconciled to completed.",
	}, []string{"gateway", "source"})

	paymentsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "payments",
		Name:      "failed_total",
		Help:      "Total number of payments marked failed.",
	}, []string{"gateway"})

	webhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "webhooks",
		Name:      "received_total",
		Help:      "Total number of webhook deliveries by outcome.",
	}, []string{"gateway", "outcome"})
)
