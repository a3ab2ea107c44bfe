/*

This file contains the Prometheus instrumentation for the monitoring loop.
All collectors are registered on the default registry and served from the
web server's /metrics endpoint.

*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts completed monitoring cycles, including ones that
	// ended in a recovered panic.
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aegis_cycles_total",
		Help: "Total number of monitoring cycles run.",
	})

	// DecisionsTotal counts decisions by action.
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aegis_decisions_total",
		Help: "Total number of decisions emitted, by action.",
	}, []string{"action"})

	// RebalancesSubmitted counts atomic groups that were confirmed on chain.
	RebalancesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aegis_rebalances_submitted_total",
		Help: "Total number of rebalance groups confirmed on chain.",
	})

	// SubmissionFailures counts atomic groups that were rejected or timed
	// out before confirmation.
	SubmissionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aegis_submission_failures_total",
		Help: "Total number of rebalance groups that failed to confirm.",
	})

	// CycleDuration observes wall-clock time per cycle.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aegis_cycle_duration_seconds",
		Help:    "Duration of one monitoring cycle.",
		Buckets: prometheus.DefBuckets,
	})

	// CurrentPrice tracks the most recently observed pool price.
	CurrentPrice = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aegis_current_price",
		Help: "Most recently observed pool price.",
	})

	// PriceSource tracks where the last price came from (feed, cache or
	// fallback), as a one-hot gauge.
	PriceSource = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "aegis_price_source",
		Help: "Source of the most recent price quote (one-hot).",
	}, []string{"source"})
)

// SetPriceSource marks the given source as active and clears the others.
func SetPriceSource(source string) {
	for _, s := range []string{"feed", "cache", "fallback"} {
		v := 0.0
		if s == source {
			v = 1.0
		}
		PriceSource.WithLabelValues(s).Set(v)
	}
}
