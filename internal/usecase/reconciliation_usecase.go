package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationUseCase checks store balances against their ledgers.
type ReconciliationUseCase struct {
	locker      StoreLocker
	storeRepo   StoreRepository
	balanceRepo BalanceRepository
	ledgerRepo  LedgerRepository
	clock       Clock
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	locker StoreLocker,
	storeRepo StoreRepository,
	balanceRepo BalanceRepository,
	ledgerRepo LedgerRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		locker:      locker,
		storeRepo:   storeRepo,
		balanceRepo: balanceRepo,
		ledgerRepo:  ledgerRepo,
		clock:       SystemClock(),
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	StoreID           string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	TotalIncome       decimal.Decimal
	TotalExpense      decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileStore recomputes a store balance from its ledger. Both reads
// happen under the store lock so no mutation can land in between.
func (uc *ReconciliationUseCase) ReconcileStore(ctx context.Context, storeID string) (*ReconciliationResult, error) {
	if _, err := uc.storeRepo.GetByID(ctx, storeID); err != nil {
		return nil, err
	}

	var result *ReconciliationResult

	err := uc.locker.WithStoreLock(ctx, storeID, func(ctx context.Context) error {
		balance, err := uc.balanceRepo.GetByStoreID(ctx, storeID)
		if err != nil {
			return err
		}

		income, expense, err := uc.ledgerRepo.SumByStore(ctx, storeID)
		if err != nil {
			return err
		}

		calculated := income.Sub(expense)
		difference := balance.CurrentAmount.Sub(calculated)

		result = &ReconciliationResult{
			StoreID:           storeID,
			RecordedBalance:   balance.CurrentAmount,
			CalculatedBalance: calculated,
			TotalIncome:       income,
			TotalExpense:      expense,
			Difference:        difference,
			IsReconciled:      difference.IsZero(),
			LastChecked:       uc.clock.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ReconcileAllStores reconciles every store in the system
func (uc *ReconciliationUseCase) ReconcileAllStores(ctx context.Context) ([]*ReconciliationResult, error) {
	var results []*ReconciliationResult

	for offset := 0; ; offset += ReconciliationPageSize {
		stores, err := uc.storeRepo.List(ctx, ReconciliationPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, store := range stores {
			result, err := uc.ReconcileStore(ctx, store.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile store %s: %w", store.ID, err)
			}
			results = append(results, result)
		}

		if len(stores) < ReconciliationPageSize {
			break
		}
	}

	return results, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalStores      int
	ReconciledStores int
	Discrepancies    []*ReconciliationResult
	CheckedAt        time.Time
}

// GenerateReconciliationReport generates a reconciliation report across all stores
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllStores(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalStores:   len(results),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     uc.clock.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledStores++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
