package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestStockItem_ValidateWithdrawal(t *testing.T) {
	tests := []struct {
		name      string
		onHand    int64
		requested int64
		wantErr   error
	}{
		{name: "partial withdrawal", onHand: 10, requested: 3},
		{name: "withdraw everything", onHand: 10, requested: 10},
		{name: "more than on hand", onHand: 2, requested: 5, wantErr: ErrInsufficientStock},
		{name: "zero quantity", onHand: 10, requested: 0, wantErr: ErrInvalidQuantity},
		{name: "negative quantity", onHand: 10, requested: -3, wantErr: ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &StockItem{ID: "item-1", Quantity: tt.onHand}
			err := item.ValidateWithdrawal(tt.requested)

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStockItem_InsufficientStockDetails(t *testing.T) {
	item := &StockItem{ID: "item-9", Quantity: 2}

	var stockErr *InsufficientStockError
	if !errors.As(item.ValidateWithdrawal(5), &stockErr) {
		t.Fatal("expected InsufficientStockError")
	}
	if stockErr.Requested != 5 || stockErr.Available != 2 || stockErr.ItemID != "item-9" {
		t.Errorf("unexpected details: %+v", stockErr)
	}
}

func TestStockItem_ApplyWithdrawalAndAmount(t *testing.T) {
	item := &StockItem{Quantity: 10, UnitPrice: decimal.RequireFromString("100.00")}

	if got := item.ApplyWithdrawal(3); got != 7 {
		t.Errorf("ApplyWithdrawal() = %d, want 7", got)
	}
	if got := item.SaleAmount(3); !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("SaleAmount() = %s, want 300", got)
	}
	if item.Quantity != 10 {
		t.Errorf("ApplyWithdrawal must not mutate the item")
	}
}

func TestStockItem_Validate(t *testing.T) {
	valid := StockItem{Name: "Laptop", UnitPrice: decimal.NewFromInt(10), Quantity: 1, State: StockStateAvailable}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid item, got %v", err)
	}

	negativePrice := valid
	negativePrice.UnitPrice = decimal.NewFromInt(-1)
	if err := negativePrice.Validate(); !errors.Is(err, ErrInvalidUnitPrice) {
		t.Errorf("expected ErrInvalidUnitPrice, got %v", err)
	}

	noState := valid
	noState.State = ""
	if err := noState.Validate(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}
