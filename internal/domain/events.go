package domain

import "time"

// Event types
const (
	EventTypeStockRestocked    = "stock.restocked"
	EventTypeStockSold         = "stock.sold"
	EventTypeStockStateChanged = "stock.state_changed"
	EventTypeStoreCreated      = "store.created"
)

// Aggregate types
const (
	AggregateTypeStockItem = "stock_item"
	AggregateTypeStore     = "store"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// StockRestockedEvent payload
type StockRestockedEvent struct {
	StoreID   string `json:"store_id"`
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	UnitCost  string `json:"unit_cost"`
	TotalCost string `json:"total_cost"`
	EntryID   string `json:"entry_id"`
	Balance   string `json:"balance"`
}

// StockSoldEvent payload
type StockSoldEvent struct {
	StoreID    string `json:"store_id"`
	ItemID     string `json:"item_id"`
	BuyerID    string `json:"buyer_id"`
	PurchaseID string `json:"purchase_id"`
	Quantity   int64  `json:"quantity"`
	Remaining  int64  `json:"remaining"`
	Amount     string `json:"amount"`
	EntryID    string `json:"entry_id"`
	Balance    string `json:"balance"`
}

// StockStateChangedEvent payload
type StockStateChangedEvent struct {
	StoreID string `json:"store_id"`
	ItemID  string `json:"item_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Date    string `json:"date"`
}

// StoreCreatedEvent payload
type StoreCreatedEvent struct {
	StoreID        string `json:"store_id"`
	Name           string `json:"name"`
	LocationID     string `json:"location_id"`
	OpeningBalance string `json:"opening_balance"`
}
