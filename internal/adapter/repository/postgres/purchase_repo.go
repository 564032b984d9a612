package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

const purchaseColumns = `id, store_id, stock_item_id, buyer_id, quantity, unit_price, total, created_at`

const (
	createPurchase = `INSERT INTO purchases (` + purchaseColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	listPurchasesByStockItem = `SELECT ` + purchaseColumns + ` FROM purchases
WHERE stock_item_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

	listPurchasesByBuyer = `SELECT ` + purchaseColumns + ` FROM purchases
WHERE buyer_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`
)

// PurchaseRepository implements usecase.PurchaseRepository.
type PurchaseRepository struct {
	db DBTX
}

// NewPurchaseRepository creates a new PurchaseRepository.
func NewPurchaseRepository(db DBTX) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// CreateTx records a purchase within a transaction.
func (r *PurchaseRepository) CreateTx(ctx context.Context, tx usecase.Transaction, purchase *domain.Purchase) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, createPurchase,
		purchase.ID,
		purchase.StoreID,
		purchase.StockItemID,
		purchase.BuyerID,
		purchase.Quantity,
		decimalToNumeric(purchase.UnitPrice),
		decimalToNumeric(purchase.Total),
		timeToPgTimestamptz(purchase.CreatedAt),
	)
	if isForeignKeyViolation(err) {
		return domain.ErrStockItemNotFound
	}

	return mapError(err)
}

// ListByStockItem lists the purchases of an item, newest first.
func (r *PurchaseRepository) ListByStockItem(ctx context.Context, itemID string, limit, offset int) ([]*domain.Purchase, error) {
	return r.list(ctx, listPurchasesByStockItem, itemID, limit, offset)
}

// ListByBuyer lists the purchases of a buyer, newest first.
func (r *PurchaseRepository) ListByBuyer(ctx context.Context, buyerID string, limit, offset int) ([]*domain.Purchase, error) {
	return r.list(ctx, listPurchasesByBuyer, buyerID, limit, offset)
}

func (r *PurchaseRepository) list(ctx context.Context, query, key string, limit, offset int) ([]*domain.Purchase, error) {
	rows, err := r.db.Query(ctx, query, key, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	purchases := make([]*domain.Purchase, 0)
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
	}

	return purchases, rows.Err()
}

func scanPurchase(row scanner) (*domain.Purchase, error) {
	var (
		purchase         domain.Purchase
		unitPrice, total pgtype.Numeric
		createdAt        pgtype.Timestamptz
	)

	err := row.Scan(
		&purchase.ID,
		&purchase.StoreID,
		&purchase.StockItemID,
		&purchase.BuyerID,
		&purchase.Quantity,
		&unitPrice,
		&total,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	purchase.UnitPrice = numericToDecimal(unitPrice)
	purchase.Total = numericToDecimal(total)
	purchase.CreatedAt = createdAt.Time

	return &purchase, nil
}
