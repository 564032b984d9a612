package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceAccount is the running cash balance of one store. It may go negative.
type BalanceAccount struct {
	ID            string
	StoreID       string
	CurrentAmount decimal.Decimal
	Version       int64
	LastUpdated   time.Time
	CreatedAt     time.Time
}

// Adjust applies a signed delta and bumps the version.
func (b *BalanceAccount) Adjust(delta decimal.Decimal, at time.Time) {
	b.CurrentAmount = b.CurrentAmount.Add(delta)
	b.Version++
	b.LastUpdated = at
}
