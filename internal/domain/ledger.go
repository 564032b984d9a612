package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerKind tells whether an entry brought money in or took it out.
type LedgerKind string

const (
	LedgerKindIncome  LedgerKind = "INCOME"
	LedgerKindExpense LedgerKind = "EXPENSE"
)

// IsValid checks if the kind is known.
func (k LedgerKind) IsValid() bool {
	return k == LedgerKindIncome || k == LedgerKindExpense
}

// LedgerEntry is an immutable record of one cash movement of a store.
type LedgerEntry struct {
	ID          string
	StoreID     string
	Kind        LedgerKind
	Amount      decimal.Decimal
	ReferenceID string
	Description string
	Date        time.Time
	CreatedAt   time.Time
}

// Validate checks the entry before it is written.
func (e *LedgerEntry) Validate() error {
	if !e.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidLedgerKind, e.Kind)
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, e.Amount)
	}
	if !e.Amount.Equal(e.Amount.Truncate(MoneyScale)) {
		return fmt.Errorf("%w: %s", ErrAmountScale, e.Amount)
	}
	return nil
}

// SignedAmount is the entry's effect on the balance.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Kind == LedgerKindExpense {
		return e.Amount.Neg()
	}
	return e.Amount
}

// SumSigned folds entries into the balance they imply.
func SumSigned(entries []*LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.SignedAmount())
	}
	return total
}

// LedgerFilter narrows a ledger listing.
type LedgerFilter struct {
	StoreID string
	Kind    LedgerKind
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}
