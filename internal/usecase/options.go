package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

const tracerName = "github.com/lumini-statio/stackerly-api/internal/usecase"

// Option configures the inventory and store use cases.
type Option func(*options)

type options struct {
	clock    Clock
	policy   *domain.StatePolicy
	retrier  Retrier
	cache    BalanceCache
	observer OperationObserver
	tracer   trace.Tracer
	logger   zerolog.Logger
}

func defaultOptions() options {
	return options{
		clock:    SystemClock(),
		policy:   domain.DefaultStatePolicy(),
		retrier:  noRetry{},
		observer: noopObserver{},
		tracer:   otel.Tracer(tracerName),
		logger:   zerolog.Nop(),
	}
}

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithStatePolicy overrides the default Delivered lock policy.
func WithStatePolicy(policy *domain.StatePolicy) Option {
	return func(o *options) { o.policy = policy }
}

// WithRetrier retries a whole transaction attempt on transient failures.
func WithRetrier(retrier Retrier) Option {
	return func(o *options) { o.retrier = retrier }
}

// WithBalanceCache enables the balance read cache.
func WithBalanceCache(cache BalanceCache) Option {
	return func(o *options) { o.cache = cache }
}

// WithObserver reports operation outcomes, typically to Prometheus.
func WithObserver(observer OperationObserver) Option {
	return func(o *options) { o.observer = observer }
}

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

// WithLogger sets the use case logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the wall clock, in UTC.
func SystemClock() Clock { return systemClock{} }

type noRetry struct{}

func (noRetry) Do(_ context.Context, op func() error) error { return op() }

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, time.Duration, error) {}
func (noopObserver) ObserveLockWait(time.Duration)                 {}
func (noopObserver) ObserveLedgerEntry(*domain.LedgerEntry)        {}
