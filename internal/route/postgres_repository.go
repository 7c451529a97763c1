package route

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL route repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a route by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Route, error) {
	query := `
		SELECT
			id, name, description,
			origin_lat, origin_lon,
			destination_lat, destination_lon,
			waypoints,
			created_at, updated_at
		FROM routes
		WHERE id = $1
	`

	var route Route
	var waypoints []byte

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&route.ID,
		&route.Name,
		&route.Description,
		&route.Origin.Lat,
		&route.Origin.Lon,
		&route.Destination.Lat,
		&route.Destination.Lon,
		&waypoints,
		&route.CreatedAt,
		&route.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}

	if err := unmarshalWaypoints(waypoints, &route); err != nil {
		return nil, err
	}

	return &route, nil
}

// List retrieves all routes with pagination.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	// Keyset pagination on (created_at, id): a cursor resumes after the
	// named route, an unknown cursor yields an empty page.
	query := `
		SELECT
			id, name, description,
			origin_lat, origin_lon,
			destination_lat, destination_lon,
			waypoints,
			created_at, updated_at
		FROM routes
		WHERE $2 = ''
			OR (created_at, id) < (SELECT created_at, id FROM routes WHERE id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, fetchLimit, opts.Cursor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*Route
	for rows.Next() {
		var route Route
		var waypoints []byte
		err := rows.Scan(
			&route.ID,
			&route.Name,
			&route.Description,
			&route.Origin.Lat,
			&route.Origin.Lon,
			&route.Destination.Lat,
			&route.Destination.Lon,
			&waypoints,
			&route.CreatedAt,
			&route.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := unmarshalWaypoints(waypoints, &route); err != nil {
			return nil, err
		}
		routes = append(routes, &route)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{
		Items: routes,
	}

	if len(routes) > limit {
		result.Items = routes[:limit]
		result.NextCursor = routes[limit-1].ID
	}

	return result, nil
}

// Create creates a new route.
func (r *PostgresRepository) Create(ctx context.Context, route *Route) error {
	waypoints, err := marshalWaypoints(route.Waypoints)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO routes (
			id, name, description,
			origin_lat, origin_lon,
			destination_lat, destination_lon,
			waypoints,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.pool.Exec(ctx, query,
		route.ID,
		route.Name,
		route.Description,
		route.Origin.Lat,
		route.Origin.Lon,
		route.Destination.Lat,
		route.Destination.Lon,
		waypoints,
		route.CreatedAt,
		route.UpdatedAt,
	)
	return err
}

// Update updates an existing route.
func (r *PostgresRepository) Update(ctx context.Context, route *Route) error {
	waypoints, err := marshalWaypoints(route.Waypoints)
	if err != nil {
		return err
	}

	query := `
		UPDATE routes SET
			name = $2,
			description = $3,
			origin_lat = $4,
			origin_lon = $5,
			destination_lat = $6,
			destination_lon = $7,
			waypoints = $8,
			updated_at = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		route.ID,
		route.Name,
		route.Description,
		route.Origin.Lat,
		route.Origin.Lon,
		route.Destination.Lat,
		route.Destination.Lon,
		waypoints,
		route.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrRouteNotFound
	}

	return nil
}

// Delete deletes a route by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM routes WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// Waypoints are stored as a JSONB column.
func marshalWaypoints(points []Point) ([]byte, error) {
	if points == nil {
		points = []Point{}
	}
	return json.Marshal(points)
}

func unmarshalWaypoints(data []byte, route *Route) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &route.Waypoints)
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
