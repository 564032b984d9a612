package usecase

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

// core holds what every mutating use case needs: the transaction and lock
// machinery plus observability.
type core struct {
	options

	txManager TransactionManager
	locker    StoreLocker
	repos     Repositories
	idGen     IDGenerator
}

func newCore(txManager TransactionManager, locker StoreLocker, repos Repositories, idGen IDGenerator, opts []Option) core {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return core{
		options:   o,
		txManager: txManager,
		locker:    locker,
		repos:     repos,
		idGen:     idGen,
	}
}

// instrument wraps op in a span and reports its outcome.
func (c *core) instrument(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(ctx context.Context) error) error {
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "inventory."+op, trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(ctx)
	c.observer.ObserveOperation(op, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug().Err(err).Str("op", op).Msg("operation rejected")
	}

	return err
}

// runLocked runs fn under the store lock, retrying whole attempts through
// the configured retrier.
func (c *core) runLocked(ctx context.Context, storeID string, fn func(ctx context.Context) error) error {
	requested := time.Now()

	return c.locker.WithStoreLock(ctx, storeID, func(ctx context.Context) error {
		c.observer.ObserveLockWait(time.Since(requested))
		return c.retrier.Do(ctx, func() error {
			return fn(ctx)
		})
	})
}

// commit refuses to commit once the caller has gone away.
func (c *core) commit(ctx context.Context, tx Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (c *core) invalidateBalance(ctx context.Context, storeID string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, storeID); err != nil {
		c.logger.Warn().Err(err).Str("store_id", storeID).Msg("failed to invalidate balance cache")
	}
}

func (c *core) newEvent(aggregateType, aggregateID, eventType string, payload any, now time.Time) (*domain.OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	return &domain.OutboxEvent{
		ID:            c.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       fields,
		CreatedAt:     now,
	}, nil
}

// writeEvents stores outbox events in tx.
func (c *core) writeEvents(ctx context.Context, tx Transaction, events ...*domain.OutboxEvent) error {
	for _, event := range events {
		if err := c.repos.Outbox.Create(ctx, tx, event); err != nil {
			return err
		}
	}
	return nil
}
