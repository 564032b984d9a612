package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase links a buyer to the stock they took in a sale.
type Purchase struct {
	ID          string
	StoreID     string
	StockItemID string
	BuyerID     string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	CreatedAt   time.Time
}
