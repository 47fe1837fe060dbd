// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package metrics exports classifier and rate statistics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gogpu/vrs"
)

// Recorder implements vrs.Recorder on a Prometheus registry.
type Recorder struct {
	ratePercent     *prometheus.GaugeVec
	classifyLatency *prometheus.HistogramVec
	fallbacks       *prometheus.CounterVec
	threshold       prometheus.Gauge
}

var _ vrs.Recorder = (*Recorder)(nil)

// NewRecorder registers the VRS collectors with reg. A nil reg creates
// unregistered collectors.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		ratePercent: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vrs_rate_percent",
				Help: "Share of rate image tiles per shading rate (0-100)",
			},
			[]string{"rate"},
		),
		classifyLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vrs_classify_duration_seconds",
				Help:    "Time spent classifying one frame",
				Buckets: []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066},
			},
			[]string{"backend"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vrs_cpu_fallbacks_total",
				Help: "Frames retried on the CPU after a backend failure",
			},
			[]string{"backend"},
		),
		threshold: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "vrs_sensitivity_threshold",
				Help: "Current contrast sensitivity threshold",
			},
		),
	}
}

// ObserveClassify records the duration of one classification.
func (r *Recorder) ObserveClassify(backend string, d time.Duration) {
	r.classifyLatency.WithLabelValues(backend).Observe(d.Seconds())
}

// ObserveFallback counts a CPU retry after backend from failed.
func (r *Recorder) ObserveFallback(from string) {
	r.fallbacks.WithLabelValues(from).Inc()
}

// SetPercentages publishes a distribution, one series per rate.
func (r *Recorder) SetPercentages(p vrs.Percentages) {
	for i, rate := range vrs.Rates {
		r.ratePercent.WithLabelValues(rate.String()).Set(p[i])
	}
}

// SetThreshold publishes the threshold in use.
func (r *Recorder) SetThreshold(t float64) {
	r.threshold.Set(t)
}
