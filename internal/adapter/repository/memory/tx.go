package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	db *DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *DB) *TxManager {
	return &TxManager{db: db}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newTx(m.db), nil
}

// Tx stages writes until Commit. Rows read for update remember the version
// they were read at; Commit fails with domain.ErrConcurrentUpdate when a row
// moved in the meantime.
type Tx struct {
	db *DB

	mu     sync.Mutex
	closed bool

	stores      []*domain.Store
	newBalances []*domain.BalanceAccount
	balances    map[string]*domain.BalanceAccount
	balanceBase map[string]int64
	newItems    []*domain.StockItem
	items       map[string]*domain.StockItem
	itemBase    map[string]int64
	ledger      []*domain.LedgerEntry
	purchases   []*domain.Purchase
	outbox      []*domain.OutboxEvent
}

func newTx(db *DB) *Tx {
	return &Tx{
		db:          db,
		balances:    make(map[string]*domain.BalanceAccount),
		balanceBase: make(map[string]int64),
		items:       make(map[string]*domain.StockItem),
		itemBase:    make(map[string]int64),
	}
}

// Commit applies every staged write at once.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return domain.ErrTransactionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	if err := t.verify(); err != nil {
		return err
	}

	for _, s := range t.stores {
		t.db.stores[s.ID] = s
		t.db.storeOrder = append(t.db.storeOrder, s.ID)
	}
	for _, b := range t.newBalances {
		t.db.balances[b.StoreID] = b
	}
	for storeID, b := range t.balances {
		t.db.balances[storeID] = b
	}
	for _, i := range t.newItems {
		t.db.items[i.ID] = i
		t.db.itemOrder = append(t.db.itemOrder, i.ID)
	}
	for id, i := range t.items {
		t.db.items[id] = i
	}
	t.db.ledger = append(t.db.ledger, t.ledger...)
	t.db.purchases = append(t.db.purchases, t.purchases...)
	t.db.outbox = append(t.db.outbox, t.outbox...)

	t.closed = true
	return nil
}

func (t *Tx) verify() error {
	for _, s := range t.stores {
		if _, exists := t.db.stores[s.ID]; exists {
			return fmt.Errorf("store %s already exists", s.ID)
		}
	}
	for _, b := range t.newBalances {
		if _, exists := t.db.balances[b.StoreID]; exists {
			return fmt.Errorf("balance for store %s already exists", b.StoreID)
		}
	}
	for storeID, base := range t.balanceBase {
		if _, staged := t.balances[storeID]; !staged {
			continue
		}
		current, ok := t.db.balances[storeID]
		if !ok || current.Version != base {
			return fmt.Errorf("%w: balance of store %s", domain.ErrConcurrentUpdate, storeID)
		}
	}
	for id, base := range t.itemBase {
		if _, staged := t.items[id]; !staged {
			continue
		}
		current, ok := t.db.items[id]
		if !ok || current.Version != base {
			return fmt.Errorf("%w: stock item %s", domain.ErrConcurrentUpdate, id)
		}
	}
	return nil
}

// Rollback discards staged writes. Rolling back a closed transaction is a no-op.
func (t *Tx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	return nil
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("memory: unexpected transaction type %T", tx)
	}
	return t, nil
}

// stage runs fn with the transaction locked and open.
func stage(tx usecase.Transaction, fn func(t *Tx) error) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return domain.ErrTransactionClosed
	}
	return fn(t)
}
