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

// InventoryService defines the behavior needed by InventoryHandler.
type InventoryService interface {
	Restock(ctx context.Context, input usecase.RestockInput) (*usecase.RestockResult, error)
	Sale(ctx context.Context, input usecase.SaleInput) (*usecase.SaleResult, error)
	ChangeState(ctx context.Context, input usecase.ChangeStateInput) (*domain.StockItem, error)
	GetItem(ctx context.Context, id string) (*domain.StockItem, error)
	ListItems(ctx context.Context, storeID string, limit, offset int) ([]*domain.StockItem, error)
	ListPurchases(ctx context.Context, input usecase.ListPurchasesInput) ([]*domain.Purchase, error)
}

// InventoryHandler handles stock movement requests.
type InventoryHandler struct {
	inventoryUC InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(inventoryUC InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryUC: inventoryUC}
}

// Restock adds a stock item to a store and pays for it.
func (h *InventoryHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req dto.RestockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.inventoryUC.Restock(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "restock failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RestockFromResult(result))
}

// Sale sells units of a stock item.
func (h *InventoryHandler) Sale(w http.ResponseWriter, r *http.Request) {
	var req dto.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.inventoryUC.Sale(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id"), callerID(r)))
	if err != nil {
		writeDomainError(w, "sale failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SaleFromResult(result))
}

// ChangeState moves a stock item to another state.
func (h *InventoryHandler) ChangeState(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangeStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	item, err := h.inventoryUC.ChangeState(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "state change failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StockItemFromDomain(item))
}

// GetItem retrieves a stock item by ID.
func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.inventoryUC.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get stock item", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StockItemFromDomain(item))
}

// ListItems lists the stock items of a store.
func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventoryUC.ListItems(r.Context(), chi.URLParam(r, "id"),
		parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, "failed to list stock items", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StockItemsFromDomain(items))
}

// ListItemPurchases lists the purchases of a stock item.
func (h *InventoryHandler) ListItemPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.inventoryUC.ListPurchases(r.Context(), usecase.ListPurchasesInput{
		ItemID: chi.URLParam(r, "id"),
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list purchases", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PurchasesFromDomain(purchases))
}

// ListBuyerPurchases lists the purchases of a buyer. "me" is the caller.
func (h *InventoryHandler) ListBuyerPurchases(w http.ResponseWriter, r *http.Request) {
	buyerID := chi.URLParam(r, "id")
	if buyerID == "me" {
		buyerID = callerID(r)
	}
	if buyerID == "" {
		writeError(w, http.StatusBadRequest, "missing buyer ID", "")
		return
	}

	purchases, err := h.inventoryUC.ListPurchases(r.Context(), usecase.ListPurchasesInput{
		BuyerID: buyerID,
		Limit:   parseIntQuery(r, "limit", 50),
		Offset:  parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list purchases", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PurchasesFromDomain(purchases))
}
