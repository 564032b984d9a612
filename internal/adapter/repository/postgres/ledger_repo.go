package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

const (
	dialectPostgres = "postgres"
	ledgerTable     = "ledger_entries"
)

const (
	createLedgerEntry = `INSERT INTO ledger_entries (id, store_id, kind, amount, reference_id, description, entry_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	sumLedgerByStore = `SELECT
	COALESCE(SUM(amount) FILTER (WHERE kind = 'INCOME'), 0),
	COALESCE(SUM(amount) FILTER (WHERE kind = 'EXPENSE'), 0)
FROM ledger_entries
WHERE store_id = $1`
)

var ledgerColumns = []any{
	"id", "store_id", "kind", "amount", "reference_id", "description", "entry_date", "created_at",
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreateTx appends a ledger entry within a transaction.
func (r *LedgerRepository) CreateTx(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, createLedgerEntry,
		entry.ID,
		entry.StoreID,
		string(entry.Kind),
		decimalToNumeric(entry.Amount),
		entry.ReferenceID,
		entry.Description,
		timeToPgDate(entry.Date),
		timeToPgTimestamptz(entry.CreatedAt),
	)
	if isForeignKeyViolation(err) {
		return domain.ErrStoreNotFound
	}

	return mapError(err)
}

// List returns the entries matching filter, newest first.
func (r *LedgerRepository) List(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	query, args, err := buildLedgerQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	entries := make([]*domain.LedgerEntry, 0)
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// SumByStore totals the income and expense entries of a store.
func (r *LedgerRepository) SumByStore(ctx context.Context, storeID string) (decimal.Decimal, decimal.Decimal, error) {
	var income, expense pgtype.Numeric

	if err := r.db.QueryRow(ctx, sumLedgerByStore, storeID).Scan(&income, &expense); err != nil {
		return decimal.Zero, decimal.Zero, mapError(err)
	}

	return numericToDecimal(income), numericToDecimal(expense), nil
}

func buildLedgerQuery(filter domain.LedgerFilter) (string, []any, error) {
	where := []goqu.Expression{goqu.C("store_id").Eq(filter.StoreID)}

	if filter.Kind != "" {
		where = append(where, goqu.C("kind").Eq(string(filter.Kind)))
	}
	if filter.From != nil {
		where = append(where, goqu.C("entry_date").Gte(domain.DateOf(*filter.From)))
	}
	if filter.To != nil {
		where = append(where, goqu.C("entry_date").Lt(domain.DateOf(*filter.To)))
	}

	stmt := goqu.Dialect(dialectPostgres).
		From(ledgerTable).
		Prepared(true).
		Select(ledgerColumns...).
		Where(where...).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())

	if filter.Limit > 0 {
		stmt = stmt.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(uint(filter.Offset))
	}

	query, args, err := stmt.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build ledger query: %w", err)
	}

	return query, args, nil
}

func scanLedgerEntry(row scanner) (*domain.LedgerEntry, error) {
	var (
		entry     domain.LedgerEntry
		kind      string
		amount    pgtype.Numeric
		date      pgtype.Date
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.StoreID,
		&kind,
		&amount,
		&entry.ReferenceID,
		&entry.Description,
		&date,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Kind = domain.LedgerKind(kind)
	entry.Amount = numericToDecimal(amount)
	entry.Date = date.Time
	entry.CreatedAt = createdAt.Time

	return &entry, nil
}
