// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PacketsIngested counts packet events accepted by the flow registry.
	PacketsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netsentry_packets_ingested_total",
			Help: "Total packet events ingested into the flow registry.",
		},
	)

	// ActiveFlows tracks the point-in-time size of the flow table.
	ActiveFlows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netsentry_active_flows",
			Help: "Number of live flows currently held by the registry.",
		},
	)

	// FlowsClassified counts drained flows by verdict severity.
	FlowsClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsentry_flows_classified_total",
			Help: "Total flows classified, by severity (none, low, medium, high).",
		},
		[]string{"severity"},
	)

	// ClassifyDuration observes the latency of a single pipeline call.
	ClassifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netsentry_classify_duration_seconds",
			Help:    "Latency of one classification pipeline invocation.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		},
	)

	// SinkErrors counts detection events a sink failed to accept.
	SinkErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netsentry_sink_errors_total",
			Help: "Total detection events rejected by an event sink.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		PacketsIngested,
		ActiveFlows,
		FlowsClassified,
		ClassifyDuration,
		SinkErrors,
	)
}
