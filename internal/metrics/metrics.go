// Package metrics holds the Prometheus collectors for the agency server.
// Collectors register with the default registry on import and are served
// from /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/soundwave-agency/agency-server/internal/errors"
)

const namespace = "agency"

// LoginAttemptsTotal counts login attempts.
// Labels:
//   - scope: "manager" or "client"
//   - result: see Result
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by scope and result.",
	},
	[]string{"scope", "result"},
)

// ClientOperationsTotal counts client directory operations.
// Labels:
//   - operation: "list", "detail", "create", "update", "delete", "profile", "avatar", "password"
//   - result: see Result
var ClientOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_operations_total",
		Help:      "Total number of client operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// HTTPRequestDuration measures request latency per matched route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by method, route pattern and status code.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// Result turns an operation error into a low-cardinality label value.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		return "invalid"
	case apperrors.ErrCodeNotFound:
		return "not_found"
	case apperrors.ErrCodeConflict:
		return "conflict"
	case apperrors.ErrCodeUnauthorized, apperrors.ErrCodeInvalidCredentials:
		return "denied"
	case apperrors.ErrCodeRateLimitExceeded:
		return "rate_limited"
	default:
		return "error"
	}
}

// ObserveClientOp records the outcome of a client operation.
func ObserveClientOp(operation string, err error) {
	ClientOperationsTotal.WithLabelValues(operation, Result(err)).Inc()
}

func ObserveLogin(scope string, err error) {
	LoginAttemptsTotal.WithLabelValues(scope, Result(err)).Inc()
}
