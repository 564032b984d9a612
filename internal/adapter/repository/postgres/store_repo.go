package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

const storeColumns = `id, name, location_id, created_at, updated_at`

const (
	createStore = `INSERT INTO stores (` + storeColumns + `) VALUES ($1, $2, $3, $4, $5)`

	getStoreByID = `SELECT ` + storeColumns + ` FROM stores WHERE id = $1`

	listStores = `SELECT ` + storeColumns + ` FROM stores ORDER BY created_at, id LIMIT $1 OFFSET $2`
)

// StoreRepository implements usecase.StoreRepository.
type StoreRepository struct {
	db DBTX
}

// NewStoreRepository creates a new StoreRepository.
func NewStoreRepository(db DBTX) *StoreRepository {
	return &StoreRepository{db: db}
}

// CreateTx inserts a store within a transaction.
func (r *StoreRepository) CreateTx(ctx context.Context, tx usecase.Transaction, store *domain.Store) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, createStore,
		store.ID,
		store.Name,
		store.LocationID,
		timeToPgTimestamptz(store.CreatedAt),
		timeToPgTimestamptz(store.UpdatedAt),
	)
	if isForeignKeyViolation(err) {
		return domain.ErrLocationNotFound
	}

	return mapError(err)
}

// GetByID retrieves a store by ID.
func (r *StoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDTx retrieves a store by ID within a transaction.
func (r *StoreRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Store, error) {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, pgxTx, id)
}

func (r *StoreRepository) get(ctx context.Context, db DBTX, id string) (*domain.Store, error) {
	store, err := scanStore(db.QueryRow(ctx, getStoreByID, id))
	if err != nil {
		return nil, notFound(err, domain.ErrStoreNotFound)
	}
	return store, nil
}

// List lists stores in creation order.
func (r *StoreRepository) List(ctx context.Context, limit, offset int) ([]*domain.Store, error) {
	rows, err := r.db.Query(ctx, listStores, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	stores := make([]*domain.Store, 0)
	for rows.Next() {
		store, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}

	return stores, rows.Err()
}

func scanStore(row scanner) (*domain.Store, error) {
	var (
		store                domain.Store
		createdAt, updatedAt pgtype.Timestamptz
	)

	if err := row.Scan(&store.ID, &store.Name, &store.LocationID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	store.CreatedAt = createdAt.Time
	store.UpdatedAt = updatedAt.Time

	return &store, nil
}
