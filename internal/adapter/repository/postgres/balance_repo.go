package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

const balanceColumns = `id, store_id, current_amount, version, last_updated, created_at`

const (
	createBalance = `INSERT INTO balance_accounts (` + balanceColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	getBalanceByStoreID = `SELECT ` + balanceColumns + ` FROM balance_accounts WHERE store_id = $1`

	getBalanceByStoreIDForUpdate = getBalanceByStoreID + ` FOR UPDATE`

	updateBalance = `UPDATE balance_accounts
SET current_amount = $2, version = $3, last_updated = $4
WHERE store_id = $1 AND version = $5`
)

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	db DBTX
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db DBTX) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// CreateTx inserts a balance account within a transaction.
func (r *BalanceRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.BalanceAccount) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, createBalance,
		account.ID,
		account.StoreID,
		decimalToNumeric(account.CurrentAmount),
		account.Version,
		timeToPgTimestamptz(account.LastUpdated),
		timeToPgTimestamptz(account.CreatedAt),
	)

	return mapError(err)
}

// GetByStoreID retrieves the balance account of a store.
func (r *BalanceRepository) GetByStoreID(ctx context.Context, storeID string) (*domain.BalanceAccount, error) {
	account, err := scanBalance(r.db.QueryRow(ctx, getBalanceByStoreID, storeID))
	if err != nil {
		return nil, notFound(err, domain.ErrBalanceNotFound)
	}
	return account, nil
}

// GetByStoreIDForUpdate retrieves and row-locks the balance account of a store.
func (r *BalanceRepository) GetByStoreIDForUpdate(ctx context.Context, tx usecase.Transaction, storeID string) (*domain.BalanceAccount, error) {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	account, err := scanBalance(pgxTx.QueryRow(ctx, getBalanceByStoreIDForUpdate, storeID))
	if err != nil {
		return nil, notFound(err, domain.ErrBalanceNotFound)
	}
	return account, nil
}

// UpdateTx writes the new amount if the stored version is the one it was read at.
func (r *BalanceRepository) UpdateTx(ctx context.Context, tx usecase.Transaction, account *domain.BalanceAccount) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, updateBalance,
		account.StoreID,
		decimalToNumeric(account.CurrentAmount),
		account.Version,
		timeToPgTimestamptz(account.LastUpdated),
		account.Version-1,
	)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: balance of store %s", domain.ErrConcurrentUpdate, account.StoreID)
	}

	return nil
}

func scanBalance(row scanner) (*domain.BalanceAccount, error) {
	var (
		account                domain.BalanceAccount
		amount                 pgtype.Numeric
		lastUpdated, createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.StoreID,
		&amount,
		&account.Version,
		&lastUpdated,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	account.CurrentAmount = numericToDecimal(amount)
	account.LastUpdated = lastUpdated.Time
	account.CreatedAt = createdAt.Time

	return &account, nil
}
