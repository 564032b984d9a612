package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumini-statio/stackerly-api/internal/domain"
)

const (
	createLocation = `INSERT INTO locations (id, name, created_at) VALUES ($1, $2, $3)`

	getLocationByID = `SELECT id, name, created_at FROM locations WHERE id = $1`

	listLocations = `SELECT id, name, created_at FROM locations ORDER BY created_at, id LIMIT $1 OFFSET $2`
)

// LocationRepository implements usecase.LocationRepository.
type LocationRepository struct {
	db DBTX
}

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository(db DBTX) *LocationRepository {
	return &LocationRepository{db: db}
}

// Create inserts a location.
func (r *LocationRepository) Create(ctx context.Context, location *domain.Location) error {
	_, err := r.db.Exec(ctx, createLocation, location.ID, location.Name, timeToPgTimestamptz(location.CreatedAt))
	return mapError(err)
}

// GetByID retrieves a location by ID.
func (r *LocationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	location, err := scanLocation(r.db.QueryRow(ctx, getLocationByID, id))
	if err != nil {
		return nil, notFound(err, domain.ErrLocationNotFound)
	}
	return location, nil
}

// List lists locations in creation order.
func (r *LocationRepository) List(ctx context.Context, limit, offset int) ([]*domain.Location, error) {
	rows, err := r.db.Query(ctx, listLocations, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	locations := make([]*domain.Location, 0)
	for rows.Next() {
		location, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}

	return locations, rows.Err()
}

func scanLocation(row scanner) (*domain.Location, error) {
	var (
		location  domain.Location
		createdAt pgtype.Timestamptz
	)

	if err := row.Scan(&location.ID, &location.Name, &createdAt); err != nil {
		return nil, err
	}
	location.CreatedAt = createdAt.Time

	return &location, nil
}
