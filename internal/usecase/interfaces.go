package usecase

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks github.com/lumini-statio/stackerly-api/internal/usecase LedgerRepository,OutboxRepository,Transaction,TransactionManager,BalanceCache

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

// LocationRepository defines data access for locations.
type LocationRepository interface {
	Create(ctx context.Context, location *domain.Location) error
	GetByID(ctx context.Context, id string) (*domain.Location, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Location, error)
}

// StoreRepository defines data access for stores.
type StoreRepository interface {
	CreateTx(ctx context.Context, tx Transaction, store *domain.Store) error
	GetByID(ctx context.Context, id string) (*domain.Store, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.Store, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Store, error)
}

// BalanceRepository defines data access for store balance accounts.
type BalanceRepository interface {
	CreateTx(ctx context.Context, tx Transaction, account *domain.BalanceAccount) error
	GetByStoreID(ctx context.Context, storeID string) (*domain.BalanceAccount, error)
	GetByStoreIDForUpdate(ctx context.Context, tx Transaction, storeID string) (*domain.BalanceAccount, error)
	// UpdateTx persists CurrentAmount, Version and LastUpdated. The stored
	// version must be account.Version-1, otherwise ErrConcurrentUpdate.
	UpdateTx(ctx context.Context, tx Transaction, account *domain.BalanceAccount) error
}

// StockItemRepository defines data access for stock items.
type StockItemRepository interface {
	CreateTx(ctx context.Context, tx Transaction, item *domain.StockItem) error
	GetByID(ctx context.Context, id string) (*domain.StockItem, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.StockItem, error)
	// UpdateTx persists Quantity, State, StateLastChanged and Version with the
	// same optimistic check as BalanceRepository.UpdateTx.
	UpdateTx(ctx context.Context, tx Transaction, item *domain.StockItem) error
	ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*domain.StockItem, error)
}

// LedgerRepository defines data access for ledger entries.
type LedgerRepository interface {
	CreateTx(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	List(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error)
	SumByStore(ctx context.Context, storeID string) (income, expense decimal.Decimal, err error)
}

// PurchaseRepository defines data access for purchases.
type PurchaseRepository interface {
	CreateTx(ctx context.Context, tx Transaction, purchase *domain.Purchase) error
	ListByStockItem(ctx context.Context, itemID string, limit, offset int) ([]*domain.Purchase, error)
	ListByBuyer(ctx context.Context, buyerID string, limit, offset int) ([]*domain.Purchase, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Repositories bundles the persistence ports shared by the use cases.
type Repositories struct {
	Locations LocationRepository
	Stores    StoreRepository
	Balances  BalanceRepository
	Stock     StockItemRepository
	Ledger    LedgerRepository
	Purchases PurchaseRepository
	Outbox    OutboxRepository
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// StoreLocker serializes mutations of a single store.
type StoreLocker interface {
	// WithStoreLock runs fn while holding the store's lock. It waits a bounded
	// time for the lock and fails with domain.ErrStoreBusy when it expires.
	WithStoreLock(ctx context.Context, storeID string, fn func(ctx context.Context) error) error
}

// Retrier re-runs an operation on transient storage failures.
type Retrier interface {
	Do(ctx context.Context, op func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// BalanceCache holds read-side copies of store balances.
type BalanceCache interface {
	Get(ctx context.Context, storeID string) (*domain.BalanceAccount, bool, error)
	Set(ctx context.Context, account *domain.BalanceAccount) error
	Invalidate(ctx context.Context, storeID string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release forgets a key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}

// OperationObserver records engine outcomes.
type OperationObserver interface {
	ObserveOperation(op string, duration time.Duration, err error)
	ObserveLockWait(duration time.Duration)
	ObserveLedgerEntry(entry *domain.LedgerEntry)
}
