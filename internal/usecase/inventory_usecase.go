package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

// InventoryUseCase moves stock and cash for a store. Each operation holds the
// store lock and writes stock, balance, ledger and outbox in one transaction.
type InventoryUseCase struct {
	core
}

// NewInventoryUseCase creates a new InventoryUseCase.
func NewInventoryUseCase(
	txManager TransactionManager,
	locker StoreLocker,
	repos Repositories,
	idGen IDGenerator,
	opts ...Option,
) *InventoryUseCase {
	return &InventoryUseCase{
		core: newCore(txManager, locker, repos, idGen, opts),
	}
}

// RestockInput represents input for adding a new stock item to a store.
type RestockInput struct {
	StoreID     string
	Name        string
	ProductType string
	Model       string
	UnitCost    decimal.Decimal
	Quantity    int64
}

// Validate checks the input before any lock is taken.
func (in RestockInput) Validate() error {
	if err := domain.ValidateName(in.Name); err != nil {
		return err
	}
	if err := domain.ValidateQuantity(in.Quantity); err != nil {
		return err
	}
	if err := domain.ValidateAmount(in.UnitCost); err != nil {
		return err
	}
	return domain.ValidateAmount(in.UnitCost.Mul(decimal.NewFromInt(in.Quantity)))
}

// RestockResult is the state after a committed restock.
type RestockResult struct {
	Item    *domain.StockItem
	Balance *domain.BalanceAccount
	Entry   *domain.LedgerEntry
}

// SaleInput represents input for selling units of a stock item. StoreID may
// be empty, in which case the item's store is used.
type SaleInput struct {
	StoreID  string
	ItemID   string
	Quantity int64
	BuyerID  string
}

// SaleResult is the state after a committed sale.
type SaleResult struct {
	Item     *domain.StockItem
	Balance  *domain.BalanceAccount
	Entry    *domain.LedgerEntry
	Purchase *domain.Purchase
}

// ChangeStateInput represents an administrative state change.
type ChangeStateInput struct {
	StoreID string
	ItemID  string
	Target  domain.StockState
}

// Restock creates a stock item and pays for it from the store balance.
func (uc *InventoryUseCase) Restock(ctx context.Context, input RestockInput) (*RestockResult, error) {
	var result *RestockResult

	attrs := []attribute.KeyValue{
		attribute.String("store.id", input.StoreID),
		attribute.Int64("stock.quantity", input.Quantity),
	}

	err := uc.instrument(ctx, OpRestock, attrs, func(ctx context.Context) error {
		// 0. Validate inputs before taking the lock
		if err := input.Validate(); err != nil {
			return err
		}

		return uc.runLocked(ctx, input.StoreID, func(ctx context.Context) error {
			var err error
			result, err = uc.restockTx(ctx, input)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateBalance(ctx, input.StoreID)
	uc.observer.ObserveLedgerEntry(result.Entry)

	return result, nil
}

func (uc *InventoryUseCase) restockTx(ctx context.Context, input RestockInput) (*RestockResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// 1. Begin transaction
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 2. Load store and lock its balance
	if _, err := uc.repos.Stores.GetByIDTx(ctx, tx, input.StoreID); err != nil {
		return nil, err
	}

	balance, err := uc.repos.Balances.GetByStoreIDForUpdate(ctx, tx, input.StoreID)
	if err != nil {
		return nil, err
	}

	// 3. Stage every change
	now := uc.clock.Now().UTC()

	item := &domain.StockItem{
		ID:               uc.idGen.Generate(),
		StoreID:          input.StoreID,
		Name:             input.Name,
		ProductType:      input.ProductType,
		Model:            input.Model,
		UnitPrice:        input.UnitCost,
		Quantity:         input.Quantity,
		State:            domain.StockStateAvailable,
		StateLastChanged: domain.DateOf(now),
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		ID:          uc.idGen.Generate(),
		StoreID:     input.StoreID,
		Kind:        domain.LedgerKindExpense,
		Amount:      input.UnitCost.Mul(decimal.NewFromInt(input.Quantity)),
		ReferenceID: item.ID,
		Description: fmt.Sprintf("restock %d x %s", input.Quantity, input.Name),
		Date:        now,
		CreatedAt:   now,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	balance.Adjust(entry.SignedAmount(), now)

	event, err := uc.newEvent(domain.AggregateTypeStockItem, item.ID, domain.EventTypeStockRestocked, domain.StockRestockedEvent{
		StoreID:   input.StoreID,
		ItemID:    item.ID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		UnitCost:  item.UnitPrice.String(),
		TotalCost: entry.Amount.String(),
		EntryID:   entry.ID,
		Balance:   balance.CurrentAmount.String(),
	}, now)
	if err != nil {
		return nil, err
	}

	// 4. Write
	if err := uc.repos.Stock.CreateTx(ctx, tx, item); err != nil {
		return nil, err
	}

	if err := uc.repos.Ledger.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.repos.Balances.UpdateTx(ctx, tx, balance); err != nil {
		return nil, err
	}

	if err := uc.writeEvents(ctx, tx, event); err != nil {
		return nil, err
	}

	// 5. Commit transaction
	if err := uc.commit(ctx, tx); err != nil {
		return nil, err
	}

	return &RestockResult{Item: item, Balance: balance, Entry: entry}, nil
}

// Sale takes units out of stock and books the proceeds. An item whose stock
// reaches zero moves to Not Available through the state policy; a refusal
// aborts the whole sale.
func (uc *InventoryUseCase) Sale(ctx context.Context, input SaleInput) (*SaleResult, error) {
	var result *SaleResult

	attrs := []attribute.KeyValue{
		attribute.String("store.id", input.StoreID),
		attribute.String("stock.item_id", input.ItemID),
		attribute.Int64("stock.quantity", input.Quantity),
	}

	err := uc.instrument(ctx, OpSale, attrs, func(ctx context.Context) error {
		// 0. Validate inputs before taking the lock
		if input.Quantity <= 0 {
			return fmt.Errorf("%w: got %d", domain.ErrInvalidQuantity, input.Quantity)
		}

		if input.BuyerID == "" {
			return domain.ErrBuyerRequired
		}

		storeID, err := uc.resolveStore(ctx, input.StoreID, input.ItemID)
		if err != nil {
			return err
		}
		input.StoreID = storeID

		return uc.runLocked(ctx, storeID, func(ctx context.Context) error {
			var err error
			result, err = uc.saleTx(ctx, input)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateBalance(ctx, input.StoreID)
	uc.observer.ObserveLedgerEntry(result.Entry)

	return result, nil
}

func (uc *InventoryUseCase) saleTx(ctx context.Context, input SaleInput) (*SaleResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// 1. Begin transaction
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 2. Load store, lock balance, then the item
	if _, err := uc.repos.Stores.GetByIDTx(ctx, tx, input.StoreID); err != nil {
		return nil, err
	}

	balance, err := uc.repos.Balances.GetByStoreIDForUpdate(ctx, tx, input.StoreID)
	if err != nil {
		return nil, err
	}

	item, err := uc.lockItem(ctx, tx, input.StoreID, input.ItemID)
	if err != nil {
		return nil, err
	}

	// 3. Validate and stage every change
	if err := item.ValidateWithdrawal(input.Quantity); err != nil {
		return nil, err
	}

	now := uc.clock.Now().UTC()

	updated := *item
	updated.Quantity = item.ApplyWithdrawal(input.Quantity)
	if updated.Quantity == 0 {
		if err := uc.policy.ApplyTransition(&updated, domain.StockStateNotAvailable, now); err != nil {
			return nil, err
		}
	}
	updated.Version++
	updated.UpdatedAt = now

	amount := item.SaleAmount(input.Quantity)

	entry := &domain.LedgerEntry{
		ID:          uc.idGen.Generate(),
		StoreID:     input.StoreID,
		Kind:        domain.LedgerKindIncome,
		Amount:      amount,
		ReferenceID: item.ID,
		Description: fmt.Sprintf("sale %d x %s", input.Quantity, item.Name),
		Date:        now,
		CreatedAt:   now,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	purchase := &domain.Purchase{
		ID:          uc.idGen.Generate(),
		StoreID:     input.StoreID,
		StockItemID: item.ID,
		BuyerID:     input.BuyerID,
		Quantity:    input.Quantity,
		UnitPrice:   item.UnitPrice,
		Total:       amount,
		CreatedAt:   now,
	}

	balance.Adjust(entry.SignedAmount(), now)

	events := make([]*domain.OutboxEvent, 0, 2)

	sold, err := uc.newEvent(domain.AggregateTypeStockItem, item.ID, domain.EventTypeStockSold, domain.StockSoldEvent{
		StoreID:    input.StoreID,
		ItemID:     item.ID,
		BuyerID:    input.BuyerID,
		PurchaseID: purchase.ID,
		Quantity:   input.Quantity,
		Remaining:  updated.Quantity,
		Amount:     amount.String(),
		EntryID:    entry.ID,
		Balance:    balance.CurrentAmount.String(),
	}, now)
	if err != nil {
		return nil, err
	}
	events = append(events, sold)

	if updated.State != item.State {
		changed, err := uc.stateChangedEvent(item, &updated, now)
		if err != nil {
			return nil, err
		}
		events = append(events, changed)
	}

	// 4. Write
	if err := uc.repos.Stock.UpdateTx(ctx, tx, &updated); err != nil {
		return nil, err
	}

	if err := uc.repos.Ledger.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.repos.Purchases.CreateTx(ctx, tx, purchase); err != nil {
		return nil, err
	}

	if err := uc.repos.Balances.UpdateTx(ctx, tx, balance); err != nil {
		return nil, err
	}

	if err := uc.writeEvents(ctx, tx, events...); err != nil {
		return nil, err
	}

	// 5. Commit transaction
	if err := uc.commit(ctx, tx); err != nil {
		return nil, err
	}

	return &SaleResult{Item: &updated, Balance: balance, Entry: entry, Purchase: purchase}, nil
}

// ChangeState moves an item to another state through the state policy. Cash
// and ledger are untouched.
func (uc *InventoryUseCase) ChangeState(ctx context.Context, input ChangeStateInput) (*domain.StockItem, error) {
	var result *domain.StockItem

	attrs := []attribute.KeyValue{
		attribute.String("stock.item_id", input.ItemID),
		attribute.String("stock.target_state", string(input.Target)),
	}

	err := uc.instrument(ctx, OpChangeState, attrs, func(ctx context.Context) error {
		target, err := domain.ParseStockState(string(input.Target))
		if err != nil {
			return err
		}
		input.Target = target

		storeID, err := uc.resolveStore(ctx, input.StoreID, input.ItemID)
		if err != nil {
			return err
		}
		input.StoreID = storeID

		return uc.runLocked(ctx, storeID, func(ctx context.Context) error {
			var err error
			result, err = uc.changeStateTx(ctx, input)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *InventoryUseCase) changeStateTx(ctx context.Context, input ChangeStateInput) (*domain.StockItem, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	item, err := uc.lockItem(ctx, tx, input.StoreID, input.ItemID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now().UTC()

	updated := *item
	if err := uc.policy.ApplyTransition(&updated, input.Target, now); err != nil {
		return nil, err
	}

	if updated.State == item.State {
		return item, nil
	}

	updated.Version++
	updated.UpdatedAt = now

	event, err := uc.stateChangedEvent(item, &updated, now)
	if err != nil {
		return nil, err
	}

	if err := uc.repos.Stock.UpdateTx(ctx, tx, &updated); err != nil {
		return nil, err
	}

	if err := uc.writeEvents(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.commit(ctx, tx); err != nil {
		return nil, err
	}

	return &updated, nil
}

// GetItem returns a stock item by ID.
func (uc *InventoryUseCase) GetItem(ctx context.Context, id string) (*domain.StockItem, error) {
	return uc.repos.Stock.GetByID(ctx, id)
}

// ListItems returns the stock items of a store.
func (uc *InventoryUseCase) ListItems(ctx context.Context, storeID string, limit, offset int) ([]*domain.StockItem, error) {
	if _, err := uc.repos.Stores.GetByID(ctx, storeID); err != nil {
		return nil, err
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.repos.Stock.ListByStore(ctx, storeID, limit, offset)
}

// ListPurchasesInput selects purchases by item or by buyer.
type ListPurchasesInput struct {
	ItemID  string
	BuyerID string
	Limit   int
	Offset  int
}

// ListPurchases returns the purchases of an item or of a buyer.
func (uc *InventoryUseCase) ListPurchases(ctx context.Context, input ListPurchasesInput) ([]*domain.Purchase, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	if input.ItemID != "" {
		if _, err := uc.repos.Stock.GetByID(ctx, input.ItemID); err != nil {
			return nil, err
		}
		return uc.repos.Purchases.ListByStockItem(ctx, input.ItemID, limit, offset)
	}

	if input.BuyerID == "" {
		return nil, domain.ErrBuyerRequired
	}

	return uc.repos.Purchases.ListByBuyer(ctx, input.BuyerID, limit, offset)
}

// resolveStore returns the store an item belongs to. Items never move between
// stores, so the lookup is safe outside the lock.
func (uc *InventoryUseCase) resolveStore(ctx context.Context, storeID, itemID string) (string, error) {
	if storeID != "" {
		return storeID, nil
	}

	item, err := uc.repos.Stock.GetByID(ctx, itemID)
	if err != nil {
		return "", err
	}

	return item.StoreID, nil
}

func (uc *InventoryUseCase) lockItem(ctx context.Context, tx Transaction, storeID, itemID string) (*domain.StockItem, error) {
	item, err := uc.repos.Stock.GetByIDForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	if item.StoreID != storeID {
		return nil, fmt.Errorf("%w: %s does not belong to store %s", domain.ErrStockItemNotFound, itemID, storeID)
	}

	return item, nil
}

func (uc *InventoryUseCase) stateChangedEvent(before, after *domain.StockItem, now time.Time) (*domain.OutboxEvent, error) {
	return uc.newEvent(domain.AggregateTypeStockItem, after.ID, domain.EventTypeStockStateChanged, domain.StockStateChangedEvent{
		StoreID: after.StoreID,
		ItemID:  after.ID,
		From:    string(before.State),
		To:      string(after.State),
		Date:    after.StateLastChanged.Format(domain.DateLayout),
	}, now)
}
