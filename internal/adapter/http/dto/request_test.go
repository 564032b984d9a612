package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

func TestCreateStoreRequest_ToUseCaseInput(t *testing.T) {
	var req CreateStoreRequest
	body := `{"name":"Centro","location_id":"loc-1","opening_balance":"250.00"}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := req.ToUseCaseInput()
	if got.Name != "Centro" || got.LocationID != "loc-1" {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
	if !got.OpeningBalance.Equal(decimal.RequireFromString("250")) {
		t.Fatalf("opening balance = %s, want 250", got.OpeningBalance)
	}
}

func TestRestockRequest_ToUseCaseInput(t *testing.T) {
	var req RestockRequest
	body := `{"name":"Ryzen 5","product_type":"cpu","model":"5600X","unit_cost":"100.50","quantity":3}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := req.ToUseCaseInput("store-1")
	want := usecase.RestockInput{
		StoreID:     "store-1",
		Name:        "Ryzen 5",
		ProductType: "cpu",
		Model:       "5600X",
		UnitCost:    decimal.RequireFromString("100.50"),
		Quantity:    3,
	}
	if got.StoreID != want.StoreID || got.Name != want.Name || got.ProductType != want.ProductType ||
		got.Model != want.Model || got.Quantity != want.Quantity || !got.UnitCost.Equal(want.UnitCost) {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestSaleRequest_ToUseCaseInput(t *testing.T) {
	tests := []struct {
		name      string
		req       SaleRequest
		wantBuyer string
	}{
		{"explicit buyer", SaleRequest{Quantity: 2, BuyerID: "buyer-1"}, "buyer-1"},
		{"defaults to caller", SaleRequest{Quantity: 2}, "user-1"},
		{"no caller", SaleRequest{Quantity: 2}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := "user-1"
			if tt.name == "no caller" {
				caller = ""
			}
			got := tt.req.ToUseCaseInput("item-1", caller)
			if got.ItemID != "item-1" || got.Quantity != 2 || got.BuyerID != tt.wantBuyer {
				t.Fatalf("ToUseCaseInput() = %+v, want buyer %q", got, tt.wantBuyer)
			}
			if got.StoreID != "" {
				t.Fatalf("store id should be resolved from the item, got %q", got.StoreID)
			}
		})
	}
}

func TestChangeStateRequest_ToUseCaseInput(t *testing.T) {
	req := ChangeStateRequest{State: "Delivered"}
	got := req.ToUseCaseInput("item-9")
	if got.ItemID != "item-9" || got.Target != domain.StockStateDelivered {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
}

func TestCreateLocationRequest_ToUseCaseInput(t *testing.T) {
	req := CreateLocationRequest{Name: "Córdoba"}
	if got := req.ToUseCaseInput(); got.Name != "Córdoba" {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
}
