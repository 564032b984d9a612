package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lumini-statio/stackerly-api/internal/adapter/repository/memory"
	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sequentialIDs struct {
	n atomic.Int64
}

func (g *sequentialIDs) Generate() string {
	return fmt.Sprintf("id-%06d", g.n.Add(1))
}

type harness struct {
	db        *memory.DB
	repos     usecase.Repositories
	locker    *memory.StoreLocker
	txManager *memory.TxManager
	ids       *sequentialIDs
	clock     *testClock
	inventory *usecase.InventoryUseCase
	stores    *usecase.StoreUseCase
	recon     *usecase.ReconciliationUseCase
}

func newHarness(t *testing.T, opts ...usecase.Option) *harness {
	t.Helper()

	h := &harness{
		db:     memory.NewDB(),
		locker: memory.NewStoreLocker(time.Second),
		ids:    &sequentialIDs{},
		clock:  newTestClock(),
	}
	h.repos = memory.Repositories(h.db)
	h.txManager = memory.NewTxManager(h.db)

	opts = append([]usecase.Option{usecase.WithClock(h.clock)}, opts...)
	h.inventory = usecase.NewInventoryUseCase(h.txManager, h.locker, h.repos, h.ids, opts...)
	h.stores = usecase.NewStoreUseCase(h.txManager, h.locker, h.repos, h.ids, opts...)
	h.recon = usecase.NewReconciliationUseCase(h.locker, h.repos.Stores, h.repos.Balances, h.repos.Ledger)

	return h
}

func (h *harness) openStore(t *testing.T, opening int64) string {
	t.Helper()

	ctx := context.Background()
	location, err := h.stores.CreateLocation(ctx, usecase.CreateLocationInput{Name: "Downtown"})
	require.NoError(t, err)

	created, err := h.stores.CreateStore(ctx, usecase.CreateStoreInput{
		Name:           "Main Street",
		LocationID:     location.ID,
		OpeningBalance: decimal.NewFromInt(opening),
	})
	require.NoError(t, err)

	return created.Store.ID
}

func (h *harness) restock(t *testing.T, storeID, name string, unitCost, quantity int64) *domain.StockItem {
	t.Helper()

	result, err := h.inventory.Restock(context.Background(), usecase.RestockInput{
		StoreID:  storeID,
		Name:     name,
		UnitCost: decimal.NewFromInt(unitCost),
		Quantity: quantity,
	})
	require.NoError(t, err)

	return result.Item
}

// snapshot captures everything a rejected operation must leave untouched.
type snapshot struct {
	balance   decimal.Decimal
	version   int64
	items     []domain.StockItem
	entries   int
	purchases int
	events    int
}

func (h *harness) snapshot(t *testing.T, storeID string) snapshot {
	t.Helper()
	ctx := context.Background()

	balance, err := h.repos.Balances.GetByStoreID(ctx, storeID)
	require.NoError(t, err)

	items, err := h.repos.Stock.ListByStore(ctx, storeID, domain.MaxPageSize, 0)
	require.NoError(t, err)

	entries, err := h.repos.Ledger.List(ctx, domain.LedgerFilter{StoreID: storeID, Limit: domain.MaxPageSize})
	require.NoError(t, err)

	events, err := h.repos.Outbox.GetUnpublished(ctx, domain.MaxPageSize)
	require.NoError(t, err)

	s := snapshot{
		balance: balance.CurrentAmount,
		version: balance.Version,
		entries: len(entries),
		events:  len(events),
	}
	for _, item := range items {
		s.items = append(s.items, *item)
		purchases, err := h.repos.Purchases.ListByStockItem(ctx, item.ID, domain.MaxPageSize, 0)
		require.NoError(t, err)
		s.purchases += len(purchases)
	}

	return s
}

func requireUnchanged(t *testing.T, before, after snapshot) {
	t.Helper()

	require.True(t, before.balance.Equal(after.balance), "balance changed: %s -> %s", before.balance, after.balance)
	require.Equal(t, before.version, after.version)
	require.Equal(t, before.items, after.items)
	require.Equal(t, before.entries, after.entries)
	require.Equal(t, before.purchases, after.purchases)
	require.Equal(t, before.events, after.events)
}

func (h *harness) requireReconciled(t *testing.T, storeID string) {
	t.Helper()

	result, err := h.recon.ReconcileStore(context.Background(), storeID)
	require.NoError(t, err)
	require.True(t, result.IsReconciled, "balance %s != ledger %s", result.RecordedBalance, result.CalculatedBalance)
}
