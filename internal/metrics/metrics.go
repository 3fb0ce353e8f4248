// Package metrics defines the Prometheus collectors for query execution, the
// HTTP API and logging.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garrett-reinhard/ord-interface/internal/query"
)

// =============================================================================
// Query Execution Metrics
// =============================================================================

var (
	// QueryDuration measures end-to-end execution time, acquire to last row.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ordq_query_duration_seconds",
			Help:    "Time spent executing reaction queries",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "outcome"}, // query kind | "ok", "error"
	)

	// QueryRows records the number of rows returned per query.
	QueryRows = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ordq_query_rows",
			Help:    "Number of reactions returned per query",
			Buckets: []float64{0, 1, 10, 50, 100, 250, 500, 1000},
		},
		[]string{"kind"},
	)

	// QueryErrorsTotal counts failed queries by error class.
	QueryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordq_query_errors_total",
			Help: "Total number of failed reaction queries",
		},
		[]string{"kind", "code"}, // query kind | "VALIDATION", "EXECUTION", ..., "UNAVAILABLE", "CANCELED"
	)

	// LimitClampedTotal counts queries whose requested limit exceeded the ceiling.
	LimitClampedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ordq_query_limit_clamped_total",
			Help: "Total number of queries whose limit was reduced to the configured maximum",
		},
	)

	// DecodeFailuresTotal counts stored reactions that could not be deserialized.
	DecodeFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ordq_reaction_decode_failures_total",
			Help: "Total number of reaction payloads that failed to deserialize",
		},
	)
)

// =============================================================================
// HTTP Metrics
// =============================================================================

var (
	// HTTPRequestDuration measures API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ordq_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ordq_http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// =============================================================================
// Logging Metrics
// =============================================================================

var (
	// LogEntriesTotal counts log entries by level.
	LogEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordq_log_entries_total",
			Help: "Total number of log entries by level",
		},
		[]string{"level"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ErrorCode returns the label used for err in QueryErrorsTotal.
func ErrorCode(err error) string {
	var qe *query.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &qe):
		return string(qe.Code)
	case query.IsUnavailable(err):
		return "UNAVAILABLE"
	case isContextErr(err):
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
