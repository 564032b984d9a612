package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/lumini-statio/stackerly-api/internal/adapter/http/dto"
	"github.com/lumini-statio/stackerly-api/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/stores?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/stores?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestParseDateQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ledger?from=2026-02-01", nil)
	got, err := parseDateQuery(req, "from")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("from = %v, want %v", got, want)
	}

	if got, err := parseDateQuery(req, "to"); err != nil || got != nil {
		t.Fatalf("missing param should be nil, got %v, %v", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/ledger?from=yesterday", nil)
	if _, err := parseDateQuery(req, "from"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"store not found", domain.ErrStoreNotFound, http.StatusNotFound},
		{"item not found wrapped", fmt.Errorf("%w: item-1", domain.ErrStockItemNotFound), http.StatusNotFound},
		{"insufficient stock", &domain.InsufficientStockError{ItemID: "i", Requested: 3, Available: 1}, http.StatusConflict},
		{"state locked", &domain.StateLockedError{ItemID: "i", State: domain.StockStateDelivered}, http.StatusConflict},
		{"invalid quantity", domain.ErrInvalidQuantity, http.StatusBadRequest},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"amount scale", fmt.Errorf("%w: 0.005", domain.ErrAmountScale), http.StatusBadRequest},
		{"buyer required", domain.ErrBuyerRequired, http.StatusBadRequest},
		{"store busy", domain.ErrStoreBusy, http.StatusServiceUnavailable},
		{"concurrent update", domain.ErrConcurrentUpdate, http.StatusConflict},
		{"insufficient role", domain.ErrInsufficientRole, http.StatusForbidden},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteDomainError_StoreBusySetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, "sale failed", fmt.Errorf("%w: store s-1", domain.ErrStoreBusy))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "sale failed" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestWriteDomainError_NotFoundHasNoRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, "get failed", domain.ErrStoreNotFound)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "" {
		t.Fatal("unexpected Retry-After header")
	}
}

func TestCallerID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := callerID(req); got != "" {
		t.Fatalf("callerID without user = %q", got)
	}

	ctx := domain.ContextWithUser(req.Context(), &domain.User{ID: "u-1", Role: domain.RoleClerk})
	if got := callerID(req.WithContext(ctx)); got != "u-1" {
		t.Fatalf("callerID = %q, want u-1", got)
	}
}
