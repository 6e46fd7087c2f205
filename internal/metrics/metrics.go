// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package metrics

import (
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/finger_tracker/internal/tracker"
)

var (
	registerOnce sync.Once

	ticks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fingertracker",
			Subsystem: "tracker",
			Name:      "ticks_total",
			Help:      "Ticks by outcome: sent, skipped or send_error.",
		},
		[]string{"mode", "result"},
	)
	packetBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fingertracker",
			Subsystem: "osc",
			Name:      "packet_bytes",
			Help:      "Size of encoded bundles in bytes.",
			Buckets:   prometheus.LinearBuckets(256, 512, 12),
		},
		[]string{"mode"},
	)
	flags = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fingertracker",
			Subsystem: "mux",
			Name:      "flags_total",
			Help:      "Economy units sent per flag value.",
		},
		[]string{"flag"},
	)
	outOfRange = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fingertracker",
			Subsystem: "calibration",
			Name:      "out_of_range_total",
			Help:      "Normalized values outside [-1, 1] or NaN, per channel.",
		},
		[]string{"channel"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ticks, packetBytes, flags, outOfRange)
	})
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

// RecordTick updates the counters for one tick.
func RecordTick(t tracker.Tick) {
	RegisterMetrics()
	mode := t.Mode.String()
	switch {
	case t.Skipped:
		ticks.WithLabelValues(mode, "skipped").Inc()
		return
	case t.SendErr != nil:
		ticks.WithLabelValues(mode, "send_error").Inc()
	default:
		ticks.WithLabelValues(mode, "sent").Inc()
	}
	packetBytes.WithLabelValues(mode).Observe(float64(t.Bytes))
	if t.Flag > 0 {
		flags.WithLabelValues(strconv.Itoa(t.Flag)).Inc()
	}
	for _, ch := range t.Channels {
		v := t.Normalized[ch]
		if math.IsNaN(v) || v < -1 || v > 1 {
			outOfRange.WithLabelValues(strconv.Itoa(ch)).Inc()
		}
	}
}

// Sink records every observed tick.
var Sink tracker.Sink = tracker.SinkFunc(RecordTick)
