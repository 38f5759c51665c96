// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package metrics exposes the Prometheus instrumentation for a scan/apply
// cycle: how long each phase took, how many times each system ran, and
// how often apply was cancelled or failed.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "diskengine_scan_duration_seconds",
			Help:    "Time taken to rebuild the World from the live system",
			Buckets: prometheus.DefBuckets,
		},
	)

	ApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "diskengine_apply_duration_seconds",
			Help:    "Time taken for a full apply cycle across every system",
			Buckets: prometheus.DefBuckets,
		},
	)

	SystemDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diskengine_system_duration_seconds",
			Help:    "Time taken by each system within an apply cycle",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"system"},
	)

	ApplyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskengine_apply_total",
			Help: "Total number of apply cycles by outcome",
		},
		[]string{"outcome"}, // "success", "cancelled", "error"
	)

	TableWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskengine_table_writes_total",
			Help: "Total number of partition table writes by table kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	EntitiesLive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskengine_entities_live",
			Help: "Number of live entities in the World by kind",
		},
		[]string{"kind"}, // "device", "volume_group"
	)
)

func init() {
	prometheus.MustRegister(ScanDuration)
	prometheus.MustRegister(ApplyDuration)
	prometheus.MustRegister(SystemDuration)
	prometheus.MustRegister(ApplyTotal)
	prometheus.MustRegister(TableWritesTotal)
	prometheus.MustRegister(EntitiesLive)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed wall-clock time for a single phase or system run.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time on histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time on a labeled histogram vec.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}
