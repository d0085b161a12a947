// Package metrics exposes the daemon's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Decisions counts access decisions by primary outcome tag.
	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceguard_decisions_total",
		Help: "Access decisions by outcome.",
	}, []string{"outcome"})

	// Triggers counts hardware pulses actually fired.
	Triggers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faceguard_triggers_total",
		Help: "Hardware release pulses fired.",
	})

	// Syncs counts resync attempts by result.
	Syncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceguard_syncs_total",
		Help: "Catalog resync attempts by result.",
	}, []string{"status"})

	// SyncDuration observes how long a full resync takes, including photo
	// fetches and local embedding.
	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "faceguard_sync_duration_seconds",
		Help:    "Duration of catalog resyncs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	// EventsReported counts events delivered to the remote service.
	EventsReported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faceguard_events_reported_total",
		Help: "Access events delivered upstream.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
