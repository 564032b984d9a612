package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

// DefaultLockWait bounds how long a caller queues for a store.
const DefaultLockWait = 5 * time.Second

// StoreLocker implements usecase.StoreLocker for a single process. Each store
// has a one-slot channel; waiting is bounded by the configured wait and the
// caller's context.
type StoreLocker struct {
	wait time.Duration

	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// NewStoreLocker creates a StoreLocker. A non-positive wait uses DefaultLockWait.
func NewStoreLocker(wait time.Duration) *StoreLocker {
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return &StoreLocker{
		wait:  wait,
		slots: make(map[string]*lockSlot),
	}
}

// WithStoreLock runs fn while holding the lock of storeID.
func (l *StoreLocker) WithStoreLock(ctx context.Context, storeID string, fn func(ctx context.Context) error) error {
	slot := l.acquire(storeID)
	defer l.release(storeID, slot)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
	case <-timer.C:
		return fmt.Errorf("%w: store %s", domain.ErrStoreBusy, storeID)
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-slot.ch }()

	return fn(ctx)
}

func (l *StoreLocker) acquire(storeID string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[storeID]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[storeID] = slot
	}
	slot.refs++
	return slot
}

func (l *StoreLocker) release(storeID string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, storeID)
	}
}
