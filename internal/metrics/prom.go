// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeMalformed = "malformed"
	OutcomeInternal  = "internal"
	OutcomeUnknown   = "unknown"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "beatrpc_build_info",
			Help: "Build information",
		},
		[]string{"version"},
	)

	beats = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "beatrpc_beats_total",
			Help: "Heartbeat cycles processed, including the stop cycle",
		},
	)

	calls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beatrpc_calls_total",
			Help: "Payload dispatches by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	payloadFrames = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "beatrpc_payload_frames_total",
			Help: "Payload frames received after head frames",
		},
	)

	fatalErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "beatrpc_fatal_errors_total",
			Help: "Errors that terminated a heartbeat run",
		},
	)

	loopState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "beatrpc_loop_state",
			Help: "Heartbeat loop state (0 idle, 1 running, 2 stopped)",
		},
	)
)

// Register registers all metrics with the provided registerer.
func Register(r prometheus.Registerer) {
	r.MustRegister(buildInfo, beats, calls, payloadFrames, fatalErrors, loopState)
}

// SetBuildInfo sets the build info metric.
func SetBuildInfo(version string) {
	buildInfo.WithLabelValues(version).Set(1)
}

// RecordBeat increments the beat counter.
func RecordBeat() {
	beats.Inc()
}

// RecordCall counts one dispatch. Only resolved methods are labelled by name.
func RecordCall(method, outcome string) {
	if outcome != OutcomeOK && outcome != OutcomeError {
		method = ""
	}
	calls.WithLabelValues(method, outcome).Inc()
}

// RecordPayloadFrames adds n received payload frames.
func RecordPayloadFrames(n int) {
	payloadFrames.Add(float64(n))
}

// RecordFatal counts a run terminated by an error.
func RecordFatal() {
	fatalErrors.Inc()
}

// SetLoopState records the loop state as a number.
func SetLoopState(v int) {
	loopState.Set(float64(v))
}
