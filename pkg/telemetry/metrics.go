// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package telemetry exposes Prometheus metrics for the authentication core.
// The metrics are advisory instrumentation; nothing in the core changes
// behavior based on them.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RefreshAttempts counts token renewal attempts by outcome
	// ("success", "rejected", "error").
	RefreshAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authcore_refresh_attempts_total",
			Help: "Total number of token refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// RefreshWaiters counts callers that joined an already in-flight
	// refresh instead of starting their own.
	RefreshWaiters = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "authcore_refresh_waiters_total",
			Help: "Total number of callers that awaited an in-flight refresh.",
		},
	)

	// TransportRetries counts pipeline retries of transient transport
	// failures.
	TransportRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "authcore_transport_retries_total",
			Help: "Total number of retried transport attempts.",
		},
	)

	// SessionTerminations counts session terminations by reason.
	SessionTerminations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authcore_session_terminations_total",
			Help: "Total number of session terminations by reason.",
		},
		[]string{"reason"},
	)
)

// Init registers the authcore metrics with the default registry.
func Init() {
	prometheus.MustRegister(RefreshAttempts, RefreshWaiters, TransportRetries, SessionTerminations)
}
