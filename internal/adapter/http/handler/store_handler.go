package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumini-statio/stackerly-api/internal/adapter/http/dto"
	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

// StoreService defines the behavior needed by StoreHandler.
type StoreService interface {
	CreateLocation(ctx context.Context, input usecase.CreateLocationInput) (*domain.Location, error)
	GetLocation(ctx context.Context, id string) (*domain.Location, error)
	ListLocations(ctx context.Context, limit, offset int) ([]*domain.Location, error)
	CreateStore(ctx context.Context, input usecase.CreateStoreInput) (*usecase.CreateStoreResult, error)
	GetStore(ctx context.Context, id string) (*domain.Store, error)
	ListStores(ctx context.Context, limit, offset int) ([]*domain.Store, error)
	GetBalance(ctx context.Context, storeID string) (*domain.BalanceAccount, error)
}

// ReconciliationService defines the behavior needed for reconciliation endpoints.
type ReconciliationService interface {
	ReconcileStore(ctx context.Context, storeID string) (*usecase.ReconciliationResult, error)
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// StoreHandler handles location, store and balance requests.
type StoreHandler struct {
	storeUC     StoreService
	reconcileUC ReconciliationService
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(storeUC StoreService, reconcileUC ReconciliationService) *StoreHandler {
	return &StoreHandler{storeUC: storeUC, reconcileUC: reconcileUC}
}

// CreateLocation creates a new location.
func (h *StoreHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	location, err := h.storeUC.CreateLocation(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create location", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LocationFromDomain(location))
}

// GetLocation retrieves a location by ID.
func (h *StoreHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	location, err := h.storeUC.GetLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get location", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LocationFromDomain(location))
}

// ListLocations lists locations.
func (h *StoreHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.storeUC.ListLocations(r.Context(), parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, "failed to list locations", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LocationsFromDomain(locations))
}

// CreateStore opens a store together with its balance account.
func (h *StoreHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.storeUC.CreateStore(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create store", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CreateStoreFromResult(result))
}

// GetStore retrieves a store by ID.
func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	store, err := h.storeUC.GetStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get store", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StoreFromDomain(store))
}

// ListStores lists stores.
func (h *StoreHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.storeUC.ListStores(r.Context(), parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, "failed to list stores", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StoresFromDomain(stores))
}

// GetBalance returns the store's current cash balance.
func (h *StoreHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.storeUC.GetBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// ReconcileStore compares the store balance with its ledger.
func (h *StoreHandler) ReconcileStore(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconcileUC.ReconcileStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reconcile store", err)
		return
	}

	status := http.StatusOK
	if !result.IsReconciled {
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.ReconciliationFromResult(result))
}

// ReconciliationReport reconciles every store.
func (h *StoreHandler) ReconciliationReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconcileUC.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, "failed to generate reconciliation report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromDomain(report))
}
