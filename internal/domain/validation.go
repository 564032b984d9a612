package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidName      = errors.New("invalid name")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrQuantityTooLarge = errors.New("quantity exceeds maximum allowed")
	ErrAmountScale      = errors.New("amount has more decimal places than allowed")
)

// Validation constants
const (
	MaxNameLength   = 255
	MaxAmount       = "1000000000000" // 1 trillion
	MaxQuantity     = 1_000_000_000
	MoneyScale      = 2 // decimal places stored for every amount
	MaxPageSize     = 1000
	DefaultPageSize = 50
)

var maxAmount = decimal.RequireFromString(MaxAmount)

// ValidateName validates store, location and item names
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}

	return nil
}

// ValidateQuantity validates a restock or sale quantity
func ValidateQuantity(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	if quantity > MaxQuantity {
		return fmt.Errorf("%w: maximum quantity is %d", ErrQuantityTooLarge, MaxQuantity)
	}

	return nil
}

// ValidateAmount validates a positive money amount. Amounts are stored with
// MoneyScale decimal places, so finer values are rejected rather than rounded.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrAmountScale, amount, MoneyScale)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
