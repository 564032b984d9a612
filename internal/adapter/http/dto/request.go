package dto

import (
	"github.com/shopspring/decimal"

	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

// CreateLocationRequest represents a request to create a location.
type CreateLocationRequest struct {
	Name string `json:"name"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateLocationRequest) ToUseCaseInput() usecase.CreateLocationInput {
	return usecase.CreateLocationInput{Name: r.Name}
}

// CreateStoreRequest represents a request to open a store.
type CreateStoreRequest struct {
	Name           string          `json:"name"`
	LocationID     string          `json:"location_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateStoreRequest) ToUseCaseInput() usecase.CreateStoreInput {
	return usecase.CreateStoreInput{
		Name:           r.Name,
		LocationID:     r.LocationID,
		OpeningBalance: r.OpeningBalance,
	}
}

// RestockRequest represents a request to add a stock item to a store.
type RestockRequest struct {
	Name        string          `json:"name"`
	ProductType string          `json:"product_type,omitempty"`
	Model       string          `json:"model,omitempty"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Quantity    int64           `json:"quantity"`
}

// ToUseCaseInput converts to use case input.
func (r *RestockRequest) ToUseCaseInput(storeID string) usecase.RestockInput {
	return usecase.RestockInput{
		StoreID:     storeID,
		Name:        r.Name,
		ProductType: r.ProductType,
		Model:       r.Model,
		UnitCost:    r.UnitCost,
		Quantity:    r.Quantity,
	}
}

// SaleRequest represents a request to sell units of a stock item.
// BuyerID defaults to the authenticated user.
type SaleRequest struct {
	Quantity int64  `json:"quantity"`
	BuyerID  string `json:"buyer_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *SaleRequest) ToUseCaseInput(itemID, defaultBuyer string) usecase.SaleInput {
	buyer := r.BuyerID
	if buyer == "" {
		buyer = defaultBuyer
	}
	return usecase.SaleInput{
		ItemID:   itemID,
		Quantity: r.Quantity,
		BuyerID:  buyer,
	}
}

// ChangeStateRequest represents an administrative state change.
type ChangeStateRequest struct {
	State string `json:"state"`
}

// ToUseCaseInput converts to use case input.
func (r *ChangeStateRequest) ToUseCaseInput(itemID string) usecase.ChangeStateInput {
	return usecase.ChangeStateInput{
		ItemID: itemID,
		Target: domain.StockState(r.State),
	}
}
