package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// LocationResponse represents a location in API responses.
type LocationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// LocationFromDomain converts a domain location to response.
func LocationFromDomain(l *domain.Location) *LocationResponse {
	return &LocationResponse{ID: l.ID, Name: l.Name, CreatedAt: l.CreatedAt}
}

// ListLocationsResponse represents a page of locations.
type ListLocationsResponse struct {
	Locations []*LocationResponse `json:"locations"`
	Total     int64               `json:"total"`
}

// LocationsFromDomain converts domain locations to a list response.
func LocationsFromDomain(locations []*domain.Location) ListLocationsResponse {
	result := make([]*LocationResponse, len(locations))
	for i, l := range locations {
		result[i] = LocationFromDomain(l)
	}
	return ListLocationsResponse{Locations: result, Total: int64(len(result))}
}

// StoreResponse represents a store in API responses.
type StoreResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LocationID string    `json:"location_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StoreFromDomain converts a domain store to response.
func StoreFromDomain(s *domain.Store) *StoreResponse {
	return &StoreResponse{
		ID:         s.ID,
		Name:       s.Name,
		LocationID: s.LocationID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// ListStoresResponse represents a page of stores.
type ListStoresResponse struct {
	Stores []*StoreResponse `json:"stores"`
	Total  int64            `json:"total"`
}

// StoresFromDomain converts domain stores to a list response.
func StoresFromDomain(stores []*domain.Store) ListStoresResponse {
	result := make([]*StoreResponse, len(stores))
	for i, s := range stores {
		result[i] = StoreFromDomain(s)
	}
	return ListStoresResponse{Stores: result, Total: int64(len(result))}
}

// BalanceResponse represents a store balance in API responses.
type BalanceResponse struct {
	ID            string          `json:"id"`
	StoreID       string          `json:"store_id"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Version       int64           `json:"version"`
	LastUpdated   time.Time       `json:"last_updated"`
}

// BalanceFromDomain converts a domain balance account to response.
func BalanceFromDomain(b *domain.BalanceAccount) *BalanceResponse {
	return &BalanceResponse{
		ID:            b.ID,
		StoreID:       b.StoreID,
		CurrentAmount: b.CurrentAmount,
		Version:       b.Version,
		LastUpdated:   b.LastUpdated,
	}
}

// StockItemResponse represents a stock item in API responses.
type StockItemResponse struct {
	ID               string          `json:"id"`
	StoreID          string          `json:"store_id"`
	Name             string          `json:"name"`
	ProductType      string          `json:"product_type,omitempty"`
	Model            string          `json:"model,omitempty"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Quantity         int64           `json:"quantity"`
	State            string          `json:"state"`
	StateLastChanged string          `json:"state_last_changed"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// StockItemFromDomain converts a domain stock item to response.
func StockItemFromDomain(s *domain.StockItem) *StockItemResponse {
	return &StockItemResponse{
		ID:               s.ID,
		StoreID:          s.StoreID,
		Name:             s.Name,
		ProductType:      s.ProductType,
		Model:            s.Model,
		UnitPrice:        s.UnitPrice,
		Quantity:         s.Quantity,
		State:            string(s.State),
		StateLastChanged: s.StateLastChanged.Format(domain.DateLayout),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// ListStockItemsResponse represents a page of stock items.
type ListStockItemsResponse struct {
	Items []*StockItemResponse `json:"items"`
	Total int64                `json:"total"`
}

// StockItemsFromDomain converts domain stock items to a list response.
func StockItemsFromDomain(items []*domain.StockItem) ListStockItemsResponse {
	result := make([]*StockItemResponse, len(items))
	for i, s := range items {
		result[i] = StockItemFromDomain(s)
	}
	return ListStockItemsResponse{Items: result, Total: int64(len(result))}
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"store_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// LedgerEntryFromDomain converts a domain ledger entry to response.
func LedgerEntryFromDomain(e *domain.LedgerEntry) *LedgerEntryResponse {
	if e == nil {
		return nil
	}
	return &LedgerEntryResponse{
		ID:          e.ID,
		StoreID:     e.StoreID,
		Kind:        string(e.Kind),
		Amount:      e.Amount,
		ReferenceID: e.ReferenceID,
		Description: e.Description,
		Date:        e.Date.Format(domain.DateLayout),
		CreatedAt:   e.CreatedAt,
	}
}

// ListLedgerEntriesResponse represents a page of ledger entries.
type ListLedgerEntriesResponse struct {
	Entries []*LedgerEntryResponse `json:"entries"`
	Total   int64                  `json:"total"`
}

// LedgerEntriesFromDomain converts domain entries to a list response.
func LedgerEntriesFromDomain(entries []*domain.LedgerEntry) ListLedgerEntriesResponse {
	result := make([]*LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = LedgerEntryFromDomain(e)
	}
	return ListLedgerEntriesResponse{Entries: result, Total: int64(len(result))}
}

// PurchaseResponse represents a purchase in API responses.
type PurchaseResponse struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"store_id"`
	StockItemID string          `json:"stock_item_id"`
	BuyerID     string          `json:"buyer_id"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PurchaseFromDomain converts a domain purchase to response.
func PurchaseFromDomain(p *domain.Purchase) *PurchaseResponse {
	return &PurchaseResponse{
		ID:          p.ID,
		StoreID:     p.StoreID,
		StockItemID: p.StockItemID,
		BuyerID:     p.BuyerID,
		Quantity:    p.Quantity,
		UnitPrice:   p.UnitPrice,
		Total:       p.Total,
		CreatedAt:   p.CreatedAt,
	}
}

// ListPurchasesResponse represents a page of purchases.
type ListPurchasesResponse struct {
	Purchases []*PurchaseResponse `json:"purchases"`
	Total     int64               `json:"total"`
}

// PurchasesFromDomain converts domain purchases to a list response.
func PurchasesFromDomain(purchases []*domain.Purchase) ListPurchasesResponse {
	result := make([]*PurchaseResponse, len(purchases))
	for i, p := range purchases {
		result[i] = PurchaseFromDomain(p)
	}
	return ListPurchasesResponse{Purchases: result, Total: int64(len(result))}
}

// CreateStoreResponse is a newly opened store.
type CreateStoreResponse struct {
	Store   *StoreResponse       `json:"store"`
	Balance *BalanceResponse     `json:"balance"`
	Entry   *LedgerEntryResponse `json:"entry,omitempty"`
}

// CreateStoreFromResult converts a use case result to response.
func CreateStoreFromResult(r *usecase.CreateStoreResult) *CreateStoreResponse {
	return &CreateStoreResponse{
		Store:   StoreFromDomain(r.Store),
		Balance: BalanceFromDomain(r.Balance),
		Entry:   LedgerEntryFromDomain(r.Entry),
	}
}

// RestockResponse is the outcome of a restock.
type RestockResponse struct {
	Item    *StockItemResponse   `json:"item"`
	Balance *BalanceResponse     `json:"balance"`
	Entry   *LedgerEntryResponse `json:"entry"`
}

// RestockFromResult converts a use case result to response.
func RestockFromResult(r *usecase.RestockResult) *RestockResponse {
	return &RestockResponse{
		Item:    StockItemFromDomain(r.Item),
		Balance: BalanceFromDomain(r.Balance),
		Entry:   LedgerEntryFromDomain(r.Entry),
	}
}

// SaleResponse is the outcome of a sale.
type SaleResponse struct {
	Item     *StockItemResponse   `json:"item"`
	Balance  *BalanceResponse     `json:"balance"`
	Entry    *LedgerEntryResponse `json:"entry"`
	Purchase *PurchaseResponse    `json:"purchase"`
}

// SaleFromResult converts a use case result to response.
func SaleFromResult(r *usecase.SaleResult) *SaleResponse {
	return &SaleResponse{
		Item:     StockItemFromDomain(r.Item),
		Balance:  BalanceFromDomain(r.Balance),
		Entry:    LedgerEntryFromDomain(r.Entry),
		Purchase: PurchaseFromDomain(r.Purchase),
	}
}

// ReconciliationResponse represents one store's reconciliation.
type ReconciliationResponse struct {
	StoreID           string          `json:"store_id"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	TotalIncome       decimal.Decimal `json:"total_income"`
	TotalExpense      decimal.Decimal `json:"total_expense"`
	Difference        decimal.Decimal `json:"difference"`
	IsReconciled      bool            `json:"is_reconciled"`
	LastChecked       time.Time       `json:"last_checked"`
}

// ReconciliationFromResult converts a use case result to response.
func ReconciliationFromResult(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		StoreID:           r.StoreID,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		TotalIncome:       r.TotalIncome,
		TotalExpense:      r.TotalExpense,
		Difference:        r.Difference,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportResponse summarizes reconciliation across stores.
type ReconciliationReportResponse struct {
	TotalStores      int                       `json:"total_stores"`
	ReconciledStores int                       `json:"reconciled_stores"`
	Discrepancies    []*ReconciliationResponse `json:"discrepancies"`
	CheckedAt        time.Time                 `json:"checked_at"`
}

// ReconciliationReportFromDomain converts a report to response.
func ReconciliationReportFromDomain(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromResult(d)
	}
	return &ReconciliationReportResponse{
		TotalStores:      r.TotalStores,
		ReconciledStores: r.ReconciledStores,
		Discrepancies:    discrepancies,
		CheckedAt:        r.CheckedAt,
	}
}
