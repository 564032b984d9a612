package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumini-statio/stackerly-api/internal/adapter/http/dto"
	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

type storeServiceStub struct {
	createLocationFn func(ctx context.Context, input usecase.CreateLocationInput) (*domain.Location, error)
	getLocationFn    func(ctx context.Context, id string) (*domain.Location, error)
	listLocationsFn  func(ctx context.Context, limit, offset int) ([]*domain.Location, error)
	createStoreFn    func(ctx context.Context, input usecase.CreateStoreInput) (*usecase.CreateStoreResult, error)
	getStoreFn       func(ctx context.Context, id string) (*domain.Store, error)
	listStoresFn     func(ctx context.Context, limit, offset int) ([]*domain.Store, error)
	getBalanceFn     func(ctx context.Context, storeID string) (*domain.BalanceAccount, error)
}

func (s *storeServiceStub) CreateLocation(ctx context.Context, input usecase.CreateLocationInput) (*domain.Location, error) {
	return s.createLocationFn(ctx, input)
}

func (s *storeServiceStub) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	return s.getLocationFn(ctx, id)
}

func (s *storeServiceStub) ListLocations(ctx context.Context, limit, offset int) ([]*domain.Location, error) {
	return s.listLocationsFn(ctx, limit, offset)
}

func (s *storeServiceStub) CreateStore(ctx context.Context, input usecase.CreateStoreInput) (*usecase.CreateStoreResult, error) {
	return s.createStoreFn(ctx, input)
}

func (s *storeServiceStub) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	return s.getStoreFn(ctx, id)
}

func (s *storeServiceStub) ListStores(ctx context.Context, limit, offset int) ([]*domain.Store, error) {
	return s.listStoresFn(ctx, limit, offset)
}

func (s *storeServiceStub) GetBalance(ctx context.Context, storeID string) (*domain.BalanceAccount, error) {
	return s.getBalanceFn(ctx, storeID)
}

type reconciliationServiceStub struct {
	reconcileFn func(ctx context.Context, storeID string) (*usecase.ReconciliationResult, error)
	reportFn    func(ctx context.Context) (*usecase.ReconciliationReport, error)
}

func (s *reconciliationServiceStub) ReconcileStore(ctx context.Context, storeID string) (*usecase.ReconciliationResult, error) {
	return s.reconcileFn(ctx, storeID)
}

func (s *reconciliationServiceStub) GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return s.reportFn(ctx)
}

func TestStoreHandler_CreateStore(t *testing.T) {
	var captured usecase.CreateStoreInput
	handler := NewStoreHandler(&storeServiceStub{
		createStoreFn: func(ctx context.Context, input usecase.CreateStoreInput) (*usecase.CreateStoreResult, error) {
			captured = input
			return &usecase.CreateStoreResult{
				Store:   &domain.Store{ID: "store-1", Name: input.Name, LocationID: input.LocationID},
				Balance: &domain.BalanceAccount{StoreID: "store-1", CurrentAmount: input.OpeningBalance, Version: 1},
				Entry:   &domain.LedgerEntry{ID: "le-1", Kind: domain.LedgerKindIncome, Amount: input.OpeningBalance, Date: time.Now()},
			}, nil
		},
	}, &reconciliationServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/stores",
		strings.NewReader(`{"name":"Centro","location_id":"loc-1","opening_balance":"500"}`))
	rec := httptest.NewRecorder()

	handler.CreateStore(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.LocationID != "loc-1" || !captured.OpeningBalance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.CreateStoreResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Store.ID != "store-1" || resp.Entry == nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStoreHandler_CreateStore_UnknownLocation(t *testing.T) {
	handler := NewStoreHandler(&storeServiceStub{
		createStoreFn: func(ctx context.Context, input usecase.CreateStoreInput) (*usecase.CreateStoreResult, error) {
			return nil, domain.ErrLocationNotFound
		},
	}, &reconciliationServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/stores", strings.NewReader(`{"name":"Centro","location_id":"nope"}`))
	rec := httptest.NewRecorder()

	handler.CreateStore(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStoreHandler_GetBalance(t *testing.T) {
	handler := NewStoreHandler(&storeServiceStub{
		getBalanceFn: func(ctx context.Context, storeID string) (*domain.BalanceAccount, error) {
			if storeID != "store-1" {
				return nil, domain.ErrStoreNotFound
			}
			return &domain.BalanceAccount{StoreID: storeID, CurrentAmount: decimal.RequireFromString("-12.5")}, nil
		},
	}, &reconciliationServiceStub{})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/stores/store-1/balance", nil), "id", "store-1")
	rec := httptest.NewRecorder()
	handler.GetBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dto.BalanceResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.CurrentAmount.Equal(decimal.RequireFromString("-12.5")) {
		t.Fatalf("current_amount = %s", resp.CurrentAmount)
	}

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/stores/other/balance", nil), "id", "other")
	rec = httptest.NewRecorder()
	handler.GetBalance(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStoreHandler_ReconcileStore(t *testing.T) {
	tests := []struct {
		name       string
		reconciled bool
		wantStatus int
	}{
		{"balanced", true, http.StatusOK},
		{"discrepancy", false, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewStoreHandler(&storeServiceStub{}, &reconciliationServiceStub{
				reconcileFn: func(ctx context.Context, storeID string) (*usecase.ReconciliationResult, error) {
					return &usecase.ReconciliationResult{StoreID: storeID, IsReconciled: tt.reconciled}, nil
				},
			})

			req := withURLParam(httptest.NewRequest(http.MethodGet, "/stores/store-1/reconciliation", nil), "id", "store-1")
			rec := httptest.NewRecorder()
			handler.ReconcileStore(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestStoreHandler_ReconciliationReport_Error(t *testing.T) {
	handler := NewStoreHandler(&storeServiceStub{}, &reconciliationServiceStub{
		reportFn: func(ctx context.Context) (*usecase.ReconciliationReport, error) {
			return nil, errors.New("db down")
		},
	})

	rec := httptest.NewRecorder()
	handler.ReconciliationReport(rec, httptest.NewRequest(http.MethodGet, "/reconciliation", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestStoreHandler_ListLocations(t *testing.T) {
	handler := NewStoreHandler(&storeServiceStub{
		listLocationsFn: func(ctx context.Context, limit, offset int) ([]*domain.Location, error) {
			if limit != 20 || offset != 0 {
				t.Fatalf("unexpected pagination %d/%d", limit, offset)
			}
			return []*domain.Location{{ID: "loc-1", Name: "Norte"}}, nil
		},
	}, &reconciliationServiceStub{})

	rec := httptest.NewRecorder()
	handler.ListLocations(rec, httptest.NewRequest(http.MethodGet, "/locations", nil))

	var resp dto.ListLocationsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Locations[0].Name != "Norte" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
