// Package metrics provides Prometheus instrumentation for the StudyLink API
// server. It exposes gauges for open delivery channels, counters for
// broadcast and notification throughput, and a histogram for mutation
// handling latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OpenChannels tracks the current number of open delivery channels,
	// labeled by transport: "sse" or "ws".
	OpenChannels = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "studylink_open_channels",
		Help: "Current number of open real-time delivery channels",
	}, []string{"transport"})

	// BroadcastsTotal counts broadcast calls, labeled by event type.
	BroadcastsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studylink_broadcasts_total",
		Help: "Total number of events broadcast to the subscription registry",
	}, []string{"type"})

	// MessagesTotal counts message send attempts, labeled by result:
	// "sent", "invalid", or "rate_limited".
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studylink_messages_total",
		Help: "Total number of message send attempts",
	}, []string{"result"})

	// NotificationsCreated counts notification rows written as mutation
	// side effects.
	NotificationsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studylink_notifications_created_total",
		Help: "Total number of notification rows created",
	})

	// LoginsTotal counts successful logins.
	LoginsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "studylink_logins_total",
		Help: "Total number of successful logins",
	})

	// MutationLatency records database mutation latency in seconds.
	MutationLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "studylink_mutation_latency_seconds",
		Help:    "Mutation endpoint database latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})
)

func init() {
	prometheus.MustRegister(
		OpenChannels,
		BroadcastsTotal,
		MessagesTotal,
		NotificationsCreated,
		LoginsTotal,
		MutationLatency,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
