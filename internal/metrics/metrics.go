// Package metrics holds the Prometheus collectors shared by the gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	OTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_otp_requests_total",
			Help: "OTP issue attempts by purpose and result",
		},
		[]string{"purpose", "result"},
	)

	OTPVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_otp_verifications_total",
			Help: "OTP verification attempts by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_upstream_requests_total",
			Help: "Calls to external collaborators",
		},
		[]string{"upstream", "operation", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_upstream_request_duration_seconds",
			Help:    "Duration of calls to external collaborators",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
		},
		[]string{"upstream", "operation"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_cache_lookups_total",
			Help: "Catalog cache lookups by result",
		},
		[]string{"backend", "result"},
	)

	PlanSuggestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_plan_suggestions_total",
			Help: "Plan suggestions by sequencing source",
		},
		[]string{"source"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_rate_limited_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)
)

// ObserveUpstream records one call to an external collaborator.
func ObserveUpstream(upstream, operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	UpstreamRequestsTotal.WithLabelValues(upstream, operation, status).Inc()
	UpstreamRequestDuration.WithLabelValues(upstream, operation).Observe(time.Since(start).Seconds())
}
