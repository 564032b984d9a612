package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

// Lock defaults.
const (
	DefaultLockWait   = 5 * time.Second
	DefaultLockExpiry = 30 * time.Second
	lockRetryDelay    = 50 * time.Millisecond
)

// StoreLocker implements usecase.StoreLocker across processes with a
// redsync mutex per store.
type StoreLocker struct {
	rs     *redsync.Redsync
	prefix string
	wait   time.Duration
	expiry time.Duration
	logger zerolog.Logger
}

// NewStoreLocker creates a StoreLocker. Non-positive durations use the defaults.
// The mutex is extended every expiry/3 while it is held, so expiry only bounds
// how long a crashed holder blocks the store.
func NewStoreLocker(client *redis.Client, wait, expiry time.Duration, logger zerolog.Logger) *StoreLocker {
	if wait <= 0 {
		wait = DefaultLockWait
	}
	if expiry <= 0 {
		expiry = DefaultLockExpiry
	}

	return &StoreLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		prefix: "lock:store:",
		wait:   wait,
		expiry: expiry,
		logger: logger,
	}
}

func (l *StoreLocker) tries() int {
	n := int(l.wait / lockRetryDelay)
	if n < 1 {
		n = 1
	}
	return n
}

// WithStoreLock runs fn while holding the lock of storeID.
func (l *StoreLocker) WithStoreLock(ctx context.Context, storeID string, fn func(ctx context.Context) error) error {
	mutex := l.rs.NewMutex(
		l.prefix+storeID,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries()),
		redsync.WithRetryDelay(lockRetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return fmt.Errorf("%w: store %s: %v", domain.ErrStoreBusy, storeID, err)
	}

	stop := make(chan struct{})
	renewed := make(chan struct{})
	go l.keepAlive(ctx, mutex, storeID, stop, renewed)

	defer func() {
		close(stop)
		<-renewed

		// The caller's context may already be done; the lock must still go.
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			l.logger.Warn().
				Err(err).
				Str("store_id", storeID).
				Msg("failed to release store lock")
		}
	}()

	return fn(ctx)
}

// keepAlive extends mutex until stop is closed. A failed extension is logged
// and ends the renewal.
func (l *StoreLocker) keepAlive(ctx context.Context, mutex *redsync.Mutex, storeID string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.expiry / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if ok, err := mutex.ExtendContext(context.WithoutCancel(ctx)); !ok || err != nil {
				l.logger.Warn().
					Err(err).
					Str("store_id", storeID).
					Msg("failed to extend store lock")
				return
			}
		}
	}
}
