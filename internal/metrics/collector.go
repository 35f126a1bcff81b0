// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records solver activity. All methods are safe on a nil
// receiver so components can treat metrics as optional.
type Collector struct {
	registry *prometheus.Registry

	solveOutcomes    *prometheus.CounterVec
	stateTransitions *prometheus.CounterVec
	reloads          prometheus.Counter
	refreshRetries   prometheus.Counter
	detectDuration   prometheus.Histogram

	logger *zap.Logger
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	c := &Collector{
		registry: registry,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.solveOutcomes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solve_outcomes_total",
			Help:      "Solve attempts by terminal outcome",
		},
		[]string{"outcome"},
	)
	c.stateTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Engine state machine transitions",
		},
		[]string{"from", "to"},
	)
	c.reloads = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenge_reloads_total",
			Help:      "Challenges discarded via the reload control",
		},
	)
	c.refreshRetries = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_retries_total",
			Help:      "Retried tile-refresh reads during dynamic challenges",
		},
	)
	c.detectDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_duration_seconds",
			Help:      "Object detector invocation latency",
			Buckets:   prometheus.DefBuckets,
		},
	)

	return c
}

// Registry exposes the collector's registry for scraping.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordOutcome counts a terminal solve outcome.
func (c *Collector) RecordOutcome(outcome string) {
	if c == nil {
		return
	}
	c.solveOutcomes.WithLabelValues(outcome).Inc()
}

// RecordTransition counts one state machine transition.
func (c *Collector) RecordTransition(from, to string) {
	if c == nil {
		return
	}
	c.stateTransitions.WithLabelValues(from, to).Inc()
}

// RecordReload counts a challenge reload.
func (c *Collector) RecordReload() {
	if c == nil {
		return
	}
	c.reloads.Inc()
}

// RecordRefreshRetry counts one retried refresh read.
func (c *Collector) RecordRefreshRetry() {
	if c == nil {
		return
	}
	c.refreshRetries.Inc()
}

// ObserveDetection records one detector invocation's latency.
func (c *Collector) ObserveDetection(d time.Duration) {
	if c == nil {
		return
	}
	c.detectDuration.Observe(d.Seconds())
}
