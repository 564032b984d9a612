package usecase

import (
	"context"
	"fmt"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

// LedgerUseCase exposes the ledger of a store.
type LedgerUseCase struct {
	storeRepo  StoreRepository
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(storeRepo StoreRepository, ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		storeRepo:  storeRepo,
		ledgerRepo: ledgerRepo,
	}
}

// ListEntries lists ledger entries of a store, newest first.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidLedgerKind, filter.Kind)
	}

	if _, err := uc.storeRepo.GetByID(ctx, filter.StoreID); err != nil {
		return nil, err
	}

	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.ledgerRepo.List(ctx, filter)
}
