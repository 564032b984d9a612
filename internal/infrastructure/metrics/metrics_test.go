package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.Operations == nil || m.HTTPRequests == nil || m.StoreLockWait == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.ObserveLockWait(time.Millisecond)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("sale", 10*time.Millisecond, nil)
	m.ObserveOperation("sale", 5*time.Millisecond, &domain.InsufficientStockError{ItemID: "i1", Requested: 5, Available: 2})
	m.ObserveOperation("restock", time.Millisecond, nil)

	if got := testutil.ToFloat64(m.Operations.WithLabelValues("sale", "success")); got != 1 {
		t.Fatalf("expected 1 successful sale, got %v", got)
	}
	if got := testutil.ToFloat64(m.Operations.WithLabelValues("sale", "error")); got != 1 {
		t.Fatalf("expected 1 failed sale, got %v", got)
	}
	if got := testutil.ToFloat64(m.OperationErrors.WithLabelValues("sale", "insufficient_stock")); got != 1 {
		t.Fatalf("expected insufficient_stock reason, got %v", got)
	}
}

func TestObserveLedgerEntryAndOutbox(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveLedgerEntry(&domain.LedgerEntry{Kind: domain.LedgerKindExpense, Amount: decimal.NewFromInt(1000)})
	m.ObserveOutbox(3, 1)

	if got := testutil.ToFloat64(m.OutboxPublished); got != 3 {
		t.Fatalf("expected 3 published, got %v", got)
	}
	if got := testutil.ToFloat64(m.OutboxFailures); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.CollectAndCount(m.LedgerAmount); got != 1 {
		t.Fatalf("expected one ledger amount series, got %d", got)
	}
}

func TestErrorReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&domain.StateLockedError{ItemID: "i1"}, "state_locked"},
		{fmt.Errorf("%w: got 0", domain.ErrInvalidQuantity), "invalid_quantity"},
		{domain.ErrStockItemNotFound, "not_found"},
		{domain.ErrStoreBusy, "store_busy"},
		{domain.ErrBuyerRequired, "validation"},
		{domain.ErrAmountScale, "validation"},
		{context.DeadlineExceeded, "cancelled"},
		{errors.New("disk full"), "internal"},
	}

	for _, tt := range tests {
		if got := ErrorReason(tt.err); got != tt.want {
			t.Fatalf("ErrorReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
