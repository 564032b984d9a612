package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StockState is the lifecycle state of a stock item. The set is open: any
// non-empty name is accepted, the constants are the states the inventory
// engine produces itself.
type StockState string

const (
	StockStateAvailable    StockState = "Available"
	StockStateNotAvailable StockState = "Not Available"
	StockStateDelivered    StockState = "Delivered"
)

// MaxStateLength bounds a state name, matching the column width.
const MaxStateLength = 64

// ParseStockState normalizes and validates a state name.
func ParseStockState(s string) (StockState, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxStateLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
	return StockState(s), nil
}

// StockItem is a product held by a store.
type StockItem struct {
	ID               string
	StoreID          string
	Name             string
	ProductType      string
	Model            string
	UnitPrice        decimal.Decimal
	Quantity         int64
	State            StockState
	StateLastChanged time.Time
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks the item's structural invariants.
func (s *StockItem) Validate() error {
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	if s.UnitPrice.IsNegative() {
		return ErrInvalidUnitPrice
	}
	if s.Quantity < 0 {
		return fmt.Errorf("%w: quantity %d", ErrInvalidQuantity, s.Quantity)
	}
	if _, err := ParseStockState(string(s.State)); err != nil {
		return err
	}
	return nil
}

// ValidateWithdrawal checks that quantity units can be taken from the item.
func (s *StockItem) ValidateWithdrawal(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if quantity > s.Quantity {
		return &InsufficientStockError{
			ItemID:    s.ID,
			Requested: quantity,
			Available: s.Quantity,
		}
	}
	return nil
}

// ApplyWithdrawal returns the quantity left after a withdrawal.
func (s *StockItem) ApplyWithdrawal(quantity int64) int64 {
	return s.Quantity - quantity
}

// SaleAmount is the cash value of selling quantity units.
func (s *StockItem) SaleAmount(quantity int64) decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(quantity))
}
