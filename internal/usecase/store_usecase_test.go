package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
	"github.com/lumini-statio/stackerly-api/internal/usecase/mocks"
)

func TestStoreUseCase_CreateStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	location, err := h.stores.CreateLocation(ctx, usecase.CreateLocationInput{Name: "Harbor"})
	require.NoError(t, err)

	t.Run("with opening balance", func(t *testing.T) {
		created, err := h.stores.CreateStore(ctx, usecase.CreateStoreInput{
			Name:           "Harbor Shop",
			LocationID:     location.ID,
			OpeningBalance: decimal.NewFromInt(1000),
		})
		require.NoError(t, err)

		assert.Equal(t, location.ID, created.Store.LocationID)
		assert.True(t, created.Balance.CurrentAmount.Equal(decimal.NewFromInt(1000)))
		require.NotNil(t, created.Entry)
		assert.Equal(t, domain.LedgerKindIncome, created.Entry.Kind)

		h.requireReconciled(t, created.Store.ID)
	})

	t.Run("without opening balance", func(t *testing.T) {
		created, err := h.stores.CreateStore(ctx, usecase.CreateStoreInput{Name: "Kiosk", LocationID: location.ID})
		require.NoError(t, err)

		assert.Nil(t, created.Entry)
		assert.True(t, created.Balance.CurrentAmount.IsZero())

		entries, err := h.repos.Ledger.List(ctx, domain.LedgerFilter{StoreID: created.Store.ID, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("negative opening balance", func(t *testing.T) {
		created, err := h.stores.CreateStore(ctx, usecase.CreateStoreInput{
			Name:           "Debtor",
			LocationID:     location.ID,
			OpeningBalance: decimal.NewFromInt(-50),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.LedgerKindExpense, created.Entry.Kind)
		assert.True(t, created.Balance.CurrentAmount.Equal(decimal.NewFromInt(-50)))
		h.requireReconciled(t, created.Store.ID)
	})

	t.Run("unknown location", func(t *testing.T) {
		_, err := h.stores.CreateStore(ctx, usecase.CreateStoreInput{Name: "Ghost", LocationID: "missing"})
		require.ErrorIs(t, err, domain.ErrLocationNotFound)
		require.ErrorIs(t, err, domain.ErrEntityNotFound)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := h.stores.CreateStore(ctx, usecase.CreateStoreInput{Name: "", LocationID: location.ID})
		require.ErrorIs(t, err, domain.ErrInvalidName)
	})

	t.Run("opening balance below a cent", func(t *testing.T) {
		for _, amount := range []string{"100.005", "-0.001"} {
			_, err := h.stores.CreateStore(ctx, usecase.CreateStoreInput{
				Name:           "Fractional",
				LocationID:     location.ID,
				OpeningBalance: decimal.RequireFromString(amount),
			})
			require.ErrorIs(t, err, domain.ErrAmountScale, "opening balance %s", amount)
		}
	})

	stores, err := h.stores.ListStores(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, stores, 3)
}

func TestStoreUseCase_GetBalanceUsesCache(t *testing.T) {
	h := newHarness(t)
	storeID := h.openStore(t, 70)

	ctrl := gomock.NewController(t)
	cache := mocks.NewMockBalanceCache(ctrl)

	uc := usecase.NewStoreUseCase(h.txManager, h.locker, h.repos, h.ids, usecase.WithBalanceCache(cache))

	t.Run("miss loads and fills", func(t *testing.T) {
		cache.EXPECT().Get(gomock.Any(), storeID).Return(nil, false, nil)
		cache.EXPECT().Set(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, acc *domain.BalanceAccount) error {
				assert.True(t, acc.CurrentAmount.Equal(decimal.NewFromInt(70)))
				return nil
			})

		balance, err := uc.GetBalance(context.Background(), storeID)
		require.NoError(t, err)
		assert.True(t, balance.CurrentAmount.Equal(decimal.NewFromInt(70)))
	})

	t.Run("hit skips repository", func(t *testing.T) {
		cached := &domain.BalanceAccount{StoreID: storeID, CurrentAmount: decimal.NewFromInt(5)}
		cache.EXPECT().Get(gomock.Any(), storeID).Return(cached, true, nil)

		balance, err := uc.GetBalance(context.Background(), storeID)
		require.NoError(t, err)
		assert.Same(t, cached, balance)
	})

	t.Run("cache errors fall back to repository", func(t *testing.T) {
		cache.EXPECT().Get(gomock.Any(), storeID).Return(nil, false, errors.New("redis down"))
		cache.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		balance, err := uc.GetBalance(context.Background(), storeID)
		require.NoError(t, err)
		assert.True(t, balance.CurrentAmount.Equal(decimal.NewFromInt(70)))
	})
}

func TestStoreUseCase_GetBalanceUnknownStore(t *testing.T) {
	h := newHarness(t)

	_, err := h.stores.GetBalance(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrEntityNotFound)
}
