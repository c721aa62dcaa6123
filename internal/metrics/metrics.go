// Package metrics holds the service's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BuildsTotal counts build attempts by outcome (ask, ready,
	// planner_failed, compile_failed, credentials_failed).
	BuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowsynth_builds_total",
		Help: "Workflow build attempts by outcome.",
	}, []string{"outcome"})

	// NodeTypeFallbacks counts plan steps that degraded to the generic
	// HTTP-request node type.
	NodeTypeFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsynth_node_type_fallbacks_total",
		Help: "Plan steps compiled with the generic HTTP-request fallback.",
	})

	// MonitorPolls counts execution-status poll cycles.
	MonitorPolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsynth_monitor_polls_total",
		Help: "Execution status polls performed by the telemetry monitor.",
	})

	// EventsEmitted counts telemetry events by type.
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowsynth_events_emitted_total",
		Help: "Node lifecycle events emitted, by event type.",
	}, []string{"type"})
)

// Serve exposes /metrics on addr. Blocks; run it in its own goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
