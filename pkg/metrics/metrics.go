package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by operation (signup|login) and result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgw_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"operation", "result"},
	)

	// FlowDuration measures the full fetch-submit round trip against the identity provider.
	FlowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authgw_flow_duration_seconds",
			Help:    "Identity provider flow round-trip duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"flow"},
	)

	// ProviderErrors counts failures talking to the identity provider, labelled by error kind.
	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgw_provider_errors_total",
			Help: "Total number of identity provider failures",
		},
		[]string{"kind"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authgw_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
