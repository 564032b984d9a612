// Package memory implements the repositories on process memory. Writes made
// inside a transaction are staged and applied atomically on commit.
package memory

import (
	"sync"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

// DB is the shared in-memory state behind every repository of this package.
type DB struct {
	mu sync.RWMutex

	locations     map[string]*domain.Location
	locationOrder []string
	stores        map[string]*domain.Store
	storeOrder    []string
	balances      map[string]*domain.BalanceAccount // keyed by store ID
	items         map[string]*domain.StockItem
	itemOrder     []string
	ledger        []*domain.LedgerEntry
	purchases     []*domain.Purchase
	outbox        []*domain.OutboxEvent
}

// NewDB creates an empty database.
func NewDB() *DB {
	return &DB{
		locations: make(map[string]*domain.Location),
		stores:    make(map[string]*domain.Store),
		balances:  make(map[string]*domain.BalanceAccount),
		items:     make(map[string]*domain.StockItem),
	}
}

func cloneLocation(l *domain.Location) *domain.Location {
	c := *l
	return &c
}

func cloneStore(s *domain.Store) *domain.Store {
	c := *s
	return &c
}

func cloneBalance(b *domain.BalanceAccount) *domain.BalanceAccount {
	c := *b
	return &c
}

func cloneItem(i *domain.StockItem) *domain.StockItem {
	c := *i
	return &c
}

func cloneEntry(e *domain.LedgerEntry) *domain.LedgerEntry {
	c := *e
	return &c
}

func clonePurchase(p *domain.Purchase) *domain.Purchase {
	c := *p
	return &c
}

func cloneEvent(e *domain.OutboxEvent) *domain.OutboxEvent {
	c := *e
	if e.Payload != nil {
		c.Payload = make(map[string]any, len(e.Payload))
		for k, v := range e.Payload {
			c.Payload[k] = v
		}
	}
	return &c
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
