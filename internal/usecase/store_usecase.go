package usecase

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

// StoreUseCase manages locations, stores and their balance accounts.
type StoreUseCase struct {
	core
}

// NewStoreUseCase creates a new StoreUseCase.
func NewStoreUseCase(
	txManager TransactionManager,
	locker StoreLocker,
	repos Repositories,
	idGen IDGenerator,
	opts ...Option,
) *StoreUseCase {
	return &StoreUseCase{
		core: newCore(txManager, locker, repos, idGen, opts),
	}
}

// CreateLocationInput represents input for creating a location.
type CreateLocationInput struct {
	Name string
}

// CreateLocation creates a new location.
func (uc *StoreUseCase) CreateLocation(ctx context.Context, input CreateLocationInput) (*domain.Location, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	location := &domain.Location{
		ID:        uc.idGen.Generate(),
		Name:      input.Name,
		CreatedAt: uc.clock.Now().UTC(),
	}

	if err := uc.repos.Locations.Create(ctx, location); err != nil {
		return nil, err
	}

	return location, nil
}

// GetLocation retrieves a location by ID.
func (uc *StoreUseCase) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	return uc.repos.Locations.GetByID(ctx, id)
}

// ListLocations lists locations with pagination.
func (uc *StoreUseCase) ListLocations(ctx context.Context, limit, offset int) ([]*domain.Location, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.repos.Locations.List(ctx, limit, offset)
}

// CreateStoreInput represents input for opening a store.
type CreateStoreInput struct {
	Name           string
	LocationID     string
	OpeningBalance decimal.Decimal
}

// CreateStoreResult is a new store with its balance account.
type CreateStoreResult struct {
	Store   *domain.Store
	Balance *domain.BalanceAccount
	Entry   *domain.LedgerEntry
}

// CreateStore opens a store together with its balance account. A non-zero
// opening balance is booked as a ledger entry so the balance always equals
// the sum of the ledger.
func (uc *StoreUseCase) CreateStore(ctx context.Context, input CreateStoreInput) (*CreateStoreResult, error) {
	var result *CreateStoreResult

	attrs := []attribute.KeyValue{
		attribute.String("store.location_id", input.LocationID),
	}

	err := uc.instrument(ctx, OpCreateStore, attrs, func(ctx context.Context) error {
		if err := domain.ValidateName(input.Name); err != nil {
			return err
		}

		if !input.OpeningBalance.IsZero() {
			if err := domain.ValidateAmount(input.OpeningBalance.Abs()); err != nil {
				return err
			}
		}

		if _, err := uc.repos.Locations.GetByID(ctx, input.LocationID); err != nil {
			return err
		}

		var err error
		result, err = uc.createStoreTx(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *StoreUseCase) createStoreTx(ctx context.Context, input CreateStoreInput) (*CreateStoreResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := uc.clock.Now().UTC()

	store := &domain.Store{
		ID:         uc.idGen.Generate(),
		Name:       input.Name,
		LocationID: input.LocationID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	balance := &domain.BalanceAccount{
		ID:            uc.idGen.Generate(),
		StoreID:       store.ID,
		CurrentAmount: decimal.Zero,
		Version:       1,
		LastUpdated:   now,
		CreatedAt:     now,
	}

	var entry *domain.LedgerEntry
	if !input.OpeningBalance.IsZero() {
		kind := domain.LedgerKindIncome
		if input.OpeningBalance.IsNegative() {
			kind = domain.LedgerKindExpense
		}

		entry = &domain.LedgerEntry{
			ID:          uc.idGen.Generate(),
			StoreID:     store.ID,
			Kind:        kind,
			Amount:      input.OpeningBalance.Abs(),
			ReferenceID: store.ID,
			Description: "opening balance",
			Date:        now,
			CreatedAt:   now,
		}

		balance.CurrentAmount = entry.SignedAmount()
	}

	event, err := uc.newEvent(domain.AggregateTypeStore, store.ID, domain.EventTypeStoreCreated, domain.StoreCreatedEvent{
		StoreID:        store.ID,
		Name:           store.Name,
		LocationID:     store.LocationID,
		OpeningBalance: balance.CurrentAmount.String(),
	}, now)
	if err != nil {
		return nil, err
	}

	if err := uc.repos.Stores.CreateTx(ctx, tx, store); err != nil {
		return nil, err
	}

	if err := uc.repos.Balances.CreateTx(ctx, tx, balance); err != nil {
		return nil, err
	}

	if entry != nil {
		if err := uc.repos.Ledger.CreateTx(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	if err := uc.writeEvents(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.commit(ctx, tx); err != nil {
		return nil, err
	}

	return &CreateStoreResult{Store: store, Balance: balance, Entry: entry}, nil
}

// GetStore retrieves a store by ID.
func (uc *StoreUseCase) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	return uc.repos.Stores.GetByID(ctx, id)
}

// ListStores lists stores with pagination.
func (uc *StoreUseCase) ListStores(ctx context.Context, limit, offset int) ([]*domain.Store, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.repos.Stores.List(ctx, limit, offset)
}

// GetBalance returns the store balance, served from cache when enabled.
func (uc *StoreUseCase) GetBalance(ctx context.Context, storeID string) (*domain.BalanceAccount, error) {
	if uc.cache != nil {
		cached, ok, err := uc.cache.Get(ctx, storeID)
		if err != nil {
			uc.logger.Warn().Err(err).Str("store_id", storeID).Msg("balance cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	balance, err := uc.repos.Balances.GetByStoreID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, balance); err != nil {
			uc.logger.Warn().Err(err).Str("store_id", storeID).Msg("balance cache write failed")
		}
	}

	return balance, nil
}
