package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

const stockItemColumns = `id, store_id, name, product_type, model, unit_price, quantity, state, state_last_changed, version, created_at, updated_at`

const (
	createStockItem = `INSERT INTO stock_items (` + stockItemColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	getStockItemByID = `SELECT ` + stockItemColumns + ` FROM stock_items WHERE id = $1`

	getStockItemByIDForUpdate = getStockItemByID + ` FOR UPDATE`

	updateStockItem = `UPDATE stock_items
SET quantity = $2, state = $3, state_last_changed = $4, version = $5, updated_at = $6
WHERE id = $1 AND version = $7`

	listStockItemsByStore = `SELECT ` + stockItemColumns + ` FROM stock_items
WHERE store_id = $1
ORDER BY created_at, id
LIMIT $2 OFFSET $3`
)

// StockItemRepository implements usecase.StockItemRepository.
type StockItemRepository struct {
	db DBTX
}

// NewStockItemRepository creates a new StockItemRepository.
func NewStockItemRepository(db DBTX) *StockItemRepository {
	return &StockItemRepository{db: db}
}

// CreateTx inserts a stock item within a transaction.
func (r *StockItemRepository) CreateTx(ctx context.Context, tx usecase.Transaction, item *domain.StockItem) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, createStockItem,
		item.ID,
		item.StoreID,
		item.Name,
		item.ProductType,
		item.Model,
		decimalToNumeric(item.UnitPrice),
		item.Quantity,
		string(item.State),
		timeToPgDate(item.StateLastChanged),
		item.Version,
		timeToPgTimestamptz(item.CreatedAt),
		timeToPgTimestamptz(item.UpdatedAt),
	)
	if isForeignKeyViolation(err) {
		return domain.ErrStoreNotFound
	}

	return mapError(err)
}

// GetByID retrieves a stock item by ID.
func (r *StockItemRepository) GetByID(ctx context.Context, id string) (*domain.StockItem, error) {
	item, err := scanStockItem(r.db.QueryRow(ctx, getStockItemByID, id))
	if err != nil {
		return nil, notFound(err, domain.ErrStockItemNotFound)
	}
	return item, nil
}

// GetByIDForUpdate retrieves and row-locks a stock item.
func (r *StockItemRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.StockItem, error) {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	item, err := scanStockItem(pgxTx.QueryRow(ctx, getStockItemByIDForUpdate, id))
	if err != nil {
		return nil, notFound(err, domain.ErrStockItemNotFound)
	}
	return item, nil
}

// UpdateTx writes quantity and state if the stored version is the one it was read at.
func (r *StockItemRepository) UpdateTx(ctx context.Context, tx usecase.Transaction, item *domain.StockItem) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, updateStockItem,
		item.ID,
		item.Quantity,
		string(item.State),
		timeToPgDate(item.StateLastChanged),
		item.Version,
		timeToPgTimestamptz(item.UpdatedAt),
		item.Version-1,
	)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: stock item %s", domain.ErrConcurrentUpdate, item.ID)
	}

	return nil
}

// ListByStore lists the stock items of a store in creation order.
func (r *StockItemRepository) ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*domain.StockItem, error) {
	rows, err := r.db.Query(ctx, listStockItemsByStore, storeID, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := make([]*domain.StockItem, 0)
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func scanStockItem(row scanner) (*domain.StockItem, error) {
	var (
		item                 domain.StockItem
		unitPrice            pgtype.Numeric
		state                string
		stateLastChanged     pgtype.Date
		createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&item.ID,
		&item.StoreID,
		&item.Name,
		&item.ProductType,
		&item.Model,
		&unitPrice,
		&item.Quantity,
		&state,
		&stateLastChanged,
		&item.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.UnitPrice = numericToDecimal(unitPrice)
	item.State = domain.StockState(state)
	item.StateLastChanged = stateLastChanged.Time
	item.CreatedAt = createdAt.Time
	item.UpdatedAt = updatedAt.Time

	return &item, nil
}
