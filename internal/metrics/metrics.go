// Package metrics holds the Prometheus collectors shared by the booking
// and payment packages.  Collectors register with the default registry
// and are served by promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "desertpaths_gateway_calls_total",
		Help: "Payment gateway calls by provider, operation and outcome",
	}, []string{"provider", "op", "outcome"})

	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "desertpaths_gateway_call_duration_seconds",
		Help:    "Latency of payment gateway calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "op"})

	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "desertpaths_booking_transitions_total",
		Help: "Booking status transitions by target status and actor",
	}, []string{"status", "actor"})

	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "desertpaths_payment_reconciliations_total",
		Help: "Payment reconciliations by source and result",
	}, []string{"source", "result"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "desertpaths_booking_events_published_total",
		Help: "Booking events published to RabbitMQ by type and outcome",
	}, []string{"type", "outcome"})
)
