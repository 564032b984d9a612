package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lumini-statio/stackerly-api/internal/adapter/http/dto"
	"github.com/lumini-statio/stackerly-api/internal/domain"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	ListEntries(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error)
}

// LedgerHandler serves a store's ledger.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// List lists ledger entries of a store, newest first.
// Query: kind=INCOME|EXPENSE, from/to=YYYY-MM-DD (to is exclusive), limit, offset.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateQuery(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date", err.Error())
		return
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date", err.Error())
		return
	}

	entries, err := h.ledgerUC.ListEntries(r.Context(), domain.LedgerFilter{
		StoreID: chi.URLParam(r, "id"),
		Kind:    domain.LedgerKind(strings.ToUpper(r.URL.Query().Get("kind"))),
		From:    from,
		To:      to,
		Limit:   parseIntQuery(r, "limit", 50),
		Offset:  parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list ledger entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerEntriesFromDomain(entries))
}
