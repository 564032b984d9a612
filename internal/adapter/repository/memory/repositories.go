package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

// LocationRepository implements usecase.LocationRepository.
type LocationRepository struct {
	db *DB
}

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository(db *DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Create(_ context.Context, location *domain.Location) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.locations[location.ID]; exists {
		return fmt.Errorf("location %s already exists", location.ID)
	}
	r.db.locations[location.ID] = cloneLocation(location)
	r.db.locationOrder = append(r.db.locationOrder, location.ID)
	return nil
}

func (r *LocationRepository) GetByID(_ context.Context, id string) (*domain.Location, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	location, ok := r.db.locations[id]
	if !ok {
		return nil, domain.ErrLocationNotFound
	}
	return cloneLocation(location), nil
}

func (r *LocationRepository) List(_ context.Context, limit, offset int) ([]*domain.Location, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	ids := page(r.db.locationOrder, limit, offset)
	result := make([]*domain.Location, 0, len(ids))
	for _, id := range ids {
		result = append(result, cloneLocation(r.db.locations[id]))
	}
	return result, nil
}

// StoreRepository implements usecase.StoreRepository.
type StoreRepository struct {
	db *DB
}

// NewStoreRepository creates a new StoreRepository.
func NewStoreRepository(db *DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) CreateTx(_ context.Context, tx usecase.Transaction, store *domain.Store) error {
	return stage(tx, func(t *Tx) error {
		t.stores = append(t.stores, cloneStore(store))
		return nil
	})
}

func (r *StoreRepository) GetByID(_ context.Context, id string) (*domain.Store, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	store, ok := r.db.stores[id]
	if !ok {
		return nil, domain.ErrStoreNotFound
	}
	return cloneStore(store), nil
}

func (r *StoreRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Store, error) {
	var staged *domain.Store
	err := stage(tx, func(t *Tx) error {
		for _, s := range t.stores {
			if s.ID == id {
				staged = cloneStore(s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if staged != nil {
		return staged, nil
	}
	return r.GetByID(ctx, id)
}

func (r *StoreRepository) List(_ context.Context, limit, offset int) ([]*domain.Store, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	ids := page(r.db.storeOrder, limit, offset)
	result := make([]*domain.Store, 0, len(ids))
	for _, id := range ids {
		result = append(result, cloneStore(r.db.stores[id]))
	}
	return result, nil
}

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	db *DB
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db *DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) CreateTx(_ context.Context, tx usecase.Transaction, account *domain.BalanceAccount) error {
	return stage(tx, func(t *Tx) error {
		t.newBalances = append(t.newBalances, cloneBalance(account))
		return nil
	})
}

func (r *BalanceRepository) GetByStoreID(_ context.Context, storeID string) (*domain.BalanceAccount, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	account, ok := r.db.balances[storeID]
	if !ok {
		return nil, domain.ErrBalanceNotFound
	}
	return cloneBalance(account), nil
}

func (r *BalanceRepository) GetByStoreIDForUpdate(ctx context.Context, tx usecase.Transaction, storeID string) (*domain.BalanceAccount, error) {
	var result *domain.BalanceAccount
	err := stage(tx, func(t *Tx) error {
		if staged, ok := t.balances[storeID]; ok {
			result = cloneBalance(staged)
			return nil
		}

		account, err := r.GetByStoreID(ctx, storeID)
		if err != nil {
			return err
		}
		if _, seen := t.balanceBase[storeID]; !seen {
			t.balanceBase[storeID] = account.Version
		}
		result = account
		return nil
	})
	return result, err
}

func (r *BalanceRepository) UpdateTx(ctx context.Context, tx usecase.Transaction, account *domain.BalanceAccount) error {
	return stage(tx, func(t *Tx) error {
		if _, seen := t.balanceBase[account.StoreID]; !seen {
			if _, err := r.GetByStoreID(ctx, account.StoreID); err != nil {
				return err
			}
			t.balanceBase[account.StoreID] = account.Version - 1
		}
		t.balances[account.StoreID] = cloneBalance(account)
		return nil
	})
}

// StockItemRepository implements usecase.StockItemRepository.
type StockItemRepository struct {
	db *DB
}

// NewStockItemRepository creates a new StockItemRepository.
func NewStockItemRepository(db *DB) *StockItemRepository {
	return &StockItemRepository{db: db}
}

func (r *StockItemRepository) CreateTx(_ context.Context, tx usecase.Transaction, item *domain.StockItem) error {
	return stage(tx, func(t *Tx) error {
		t.newItems = append(t.newItems, cloneItem(item))
		return nil
	})
}

func (r *StockItemRepository) GetByID(_ context.Context, id string) (*domain.StockItem, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	item, ok := r.db.items[id]
	if !ok {
		return nil, domain.ErrStockItemNotFound
	}
	return cloneItem(item), nil
}

func (r *StockItemRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.StockItem, error) {
	var result *domain.StockItem
	err := stage(tx, func(t *Tx) error {
		if staged, ok := t.items[id]; ok {
			result = cloneItem(staged)
			return nil
		}

		item, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if _, seen := t.itemBase[id]; !seen {
			t.itemBase[id] = item.Version
		}
		result = item
		return nil
	})
	return result, err
}

func (r *StockItemRepository) UpdateTx(ctx context.Context, tx usecase.Transaction, item *domain.StockItem) error {
	return stage(tx, func(t *Tx) error {
		if _, seen := t.itemBase[item.ID]; !seen {
			if _, err := r.GetByID(ctx, item.ID); err != nil {
				return err
			}
			t.itemBase[item.ID] = item.Version - 1
		}
		t.items[item.ID] = cloneItem(item)
		return nil
	})
}

func (r *StockItemRepository) ListByStore(_ context.Context, storeID string, limit, offset int) ([]*domain.StockItem, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matching []*domain.StockItem
	for _, id := range r.db.itemOrder {
		if item := r.db.items[id]; item.StoreID == storeID {
			matching = append(matching, item)
		}
	}

	items := page(matching, limit, offset)
	result := make([]*domain.StockItem, 0, len(items))
	for _, item := range items {
		result = append(result, cloneItem(item))
	}
	return result, nil
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db *DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) CreateTx(_ context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	return stage(tx, func(t *Tx) error {
		t.ledger = append(t.ledger, cloneEntry(entry))
		return nil
	})
}

// List returns matching entries, newest first.
func (r *LedgerRepository) List(_ context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matching []*domain.LedgerEntry
	for _, e := range r.db.ledger {
		if matchesFilter(e, filter) {
			matching = append(matching, e)
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		if !matching[i].CreatedAt.Equal(matching[j].CreatedAt) {
			return matching[i].CreatedAt.After(matching[j].CreatedAt)
		}
		return matching[i].ID > matching[j].ID
	})

	entries := page(matching, filter.Limit, filter.Offset)
	result := make([]*domain.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, cloneEntry(e))
	}
	return result, nil
}

func matchesFilter(e *domain.LedgerEntry, filter domain.LedgerFilter) bool {
	if e.StoreID != filter.StoreID {
		return false
	}
	if filter.Kind != "" && e.Kind != filter.Kind {
		return false
	}
	if filter.From != nil && e.Date.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !e.Date.Before(*filter.To) {
		return false
	}
	return true
}

func (r *LedgerRepository) SumByStore(_ context.Context, storeID string) (decimal.Decimal, decimal.Decimal, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	income, expense := decimal.Zero, decimal.Zero
	for _, e := range r.db.ledger {
		if e.StoreID != storeID {
			continue
		}
		switch e.Kind {
		case domain.LedgerKindIncome:
			income = income.Add(e.Amount)
		case domain.LedgerKindExpense:
			expense = expense.Add(e.Amount)
		}
	}
	return income, expense, nil
}

// PurchaseRepository implements usecase.PurchaseRepository.
type PurchaseRepository struct {
	db *DB
}

// NewPurchaseRepository creates a new PurchaseRepository.
func NewPurchaseRepository(db *DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) CreateTx(_ context.Context, tx usecase.Transaction, purchase *domain.Purchase) error {
	return stage(tx, func(t *Tx) error {
		t.purchases = append(t.purchases, clonePurchase(purchase))
		return nil
	})
}

func (r *PurchaseRepository) ListByStockItem(_ context.Context, itemID string, limit, offset int) ([]*domain.Purchase, error) {
	return r.list(func(p *domain.Purchase) bool { return p.StockItemID == itemID }, limit, offset), nil
}

func (r *PurchaseRepository) ListByBuyer(_ context.Context, buyerID string, limit, offset int) ([]*domain.Purchase, error) {
	return r.list(func(p *domain.Purchase) bool { return p.BuyerID == buyerID }, limit, offset), nil
}

func (r *PurchaseRepository) list(match func(*domain.Purchase) bool, limit, offset int) []*domain.Purchase {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matching []*domain.Purchase
	for i := len(r.db.purchases) - 1; i >= 0; i-- {
		if p := r.db.purchases[i]; match(p) {
			matching = append(matching, p)
		}
	}

	purchases := page(matching, limit, offset)
	result := make([]*domain.Purchase, 0, len(purchases))
	for _, p := range purchases {
		result = append(result, clonePurchase(p))
	}
	return result
}

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	db *DB
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db *DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Create(_ context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return stage(tx, func(t *Tx) error {
		t.outbox = append(t.outbox, cloneEvent(event))
		return nil
	})
}

func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	result := make([]*domain.OutboxEvent, 0, limit)
	for _, e := range r.db.outbox {
		if len(result) == limit {
			break
		}
		if !e.Published {
			result = append(result, cloneEvent(e))
		}
	}
	return result, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, e := range r.db.outbox {
		if e.ID == id {
			at := publishedAt
			e.Published = true
			e.PublishedAt = &at
			return nil
		}
	}
	return fmt.Errorf("%w: outbox event %s", domain.ErrEntityNotFound, id)
}

func (r *OutboxRepository) DeletePublished(_ context.Context, before time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	kept := r.db.outbox[:0]
	for _, e := range r.db.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.db.outbox = kept
	return nil
}

// Repositories wires every repository of this package to db.
func Repositories(db *DB) usecase.Repositories {
	return usecase.Repositories{
		Locations: NewLocationRepository(db),
		Stores:    NewStoreRepository(db),
		Balances:  NewBalanceRepository(db),
		Stock:     NewStockItemRepository(db),
		Ledger:    NewLedgerRepository(db),
		Purchases: NewPurchaseRepository(db),
		Outbox:    NewOutboxRepository(db),
	}
}
