package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

const namespace = "stackerly"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Inventory engine metrics
	Operations        *prometheus.CounterVec
	OperationErrors   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	LedgerAmount      *prometheus.HistogramVec
	StoreLockWait     prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxFailures  prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Inventory operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operation_errors_total",
				Help:      "Rejected or failed inventory operations by reason",
			},
			[]string{"operation", "reason"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of inventory operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LedgerAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ledger_entry_amount",
				Help:      "Amounts of written ledger entries",
				Buckets:   []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"kind"},
		),
		StoreLockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_lock_wait_seconds",
			Help:      "Time spent waiting for a store lock",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),

		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total authentication failures",
			},
			[]string{"reason"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		}),

		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox events published",
		}),
		OutboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_failures_total",
			Help:      "Outbox events that failed to publish",
		}),
	}
}

// ObserveOperation implements usecase.OperationObserver.
func (m *Metrics) ObserveOperation(op string, duration time.Duration, err error) {
	m.OperationDuration.WithLabelValues(op).Observe(duration.Seconds())

	if err == nil {
		m.Operations.WithLabelValues(op, "success").Inc()
		return
	}

	m.Operations.WithLabelValues(op, "error").Inc()
	m.OperationErrors.WithLabelValues(op, ErrorReason(err)).Inc()
}

// ObserveLockWait implements usecase.OperationObserver.
func (m *Metrics) ObserveLockWait(duration time.Duration) {
	m.StoreLockWait.Observe(duration.Seconds())
}

// ObserveLedgerEntry implements usecase.OperationObserver.
func (m *Metrics) ObserveLedgerEntry(entry *domain.LedgerEntry) {
	m.LedgerAmount.WithLabelValues(string(entry.Kind)).Observe(entry.Amount.InexactFloat64())
}

// ObserveOutbox implements eventpublisher.Observer.
func (m *Metrics) ObserveOutbox(published, failed int) {
	m.OutboxPublished.Add(float64(published))
	m.OutboxFailures.Add(float64(failed))
}

// ErrorReason reduces an error to a low-cardinality label.
func ErrorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrStateLocked):
		return "state_locked"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrEntityNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStoreBusy):
		return "store_busy"
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return "concurrent_update"
	case errors.Is(err, domain.ErrBuyerRequired),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountScale),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidUnitPrice),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidState):
		return "validation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}
