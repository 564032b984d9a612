package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Lookup errors
	ErrEntityNotFound    = errors.New("entity not found")
	ErrStoreNotFound     = fmt.Errorf("%w: store", ErrEntityNotFound)
	ErrLocationNotFound  = fmt.Errorf("%w: location", ErrEntityNotFound)
	ErrStockItemNotFound = fmt.Errorf("%w: stock item", ErrEntityNotFound)
	ErrBalanceNotFound   = fmt.Errorf("%w: balance account", ErrEntityNotFound)

	// Inventory errors
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStateLocked       = errors.New("stock item state is locked")
	ErrInvalidState      = errors.New("invalid stock state")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidUnitPrice  = errors.New("unit price must not be negative")
	ErrInvalidLedgerKind = errors.New("invalid ledger entry kind")
	ErrBuyerRequired     = errors.New("buyer is required")

	// Concurrency errors
	ErrStoreBusy         = errors.New("store is busy, retry later")
	ErrConcurrentUpdate  = errors.New("concurrent update detected")
	ErrTransactionClosed = errors.New("transaction already closed")
)

// InsufficientStockError reports a withdrawal larger than the stock on hand.
type InsufficientStockError struct {
	ItemID    string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// StateLockedError reports a transition refused by the state policy.
type StateLockedError struct {
	ItemID   string
	State    StockState
	Since    time.Time
	Cooldown time.Duration
}

func (e *StateLockedError) Error() string {
	return fmt.Sprintf("stock item %s is locked in state %q since %s",
		e.ItemID, e.State, e.Since.Format(DateLayout))
}

func (e *StateLockedError) Unwrap() error {
	return ErrStateLocked
}

// IsRetryable reports whether the caller may safely retry the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreBusy) || errors.Is(err, ErrConcurrentUpdate)
}
