package traffic

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultListLimit = 100

// PostgresSampleRepository is a PostgreSQL implementation of SampleRepository.
type PostgresSampleRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSampleRepository creates a new PostgreSQL sample repository.
func NewPostgresSampleRepository(pool *pgxpool.Pool) *PostgresSampleRepository {
	return &PostgresSampleRepository{pool: pool}
}

// Create appends a sample. The timestamp is assigned from the server clock
// at ingestion if the caller left it zero.
func (r *PostgresSampleRepository) Create(ctx context.Context, sample *Sample) error {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO traffic_samples (
			location, latitude, longitude,
			current_speed, free_flow_speed,
			current_travel_time, free_flow_travel_time,
			confidence, road_closure, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	return r.pool.QueryRow(ctx, query,
		sample.Location,
		sample.Latitude,
		sample.Longitude,
		sample.CurrentSpeed,
		sample.FreeFlowSpeed,
		sample.CurrentTravelTime,
		sample.FreeFlowTravelTime,
		sample.Confidence,
		sample.RoadClosure,
		sample.Timestamp,
	).Scan(&sample.ID)
}

// List returns samples matching the filter, newest first.
func (r *PostgresSampleRepository) List(ctx context.Context, filter SampleFilter) ([]*Sample, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT
			id, location, latitude, longitude,
			current_speed, free_flow_speed,
			current_travel_time, free_flow_travel_time,
			confidence, road_closure, timestamp
		FROM traffic_samples
		WHERE ($1 = '' OR location = $1)
		  AND ($2::boolean IS NULL OR road_closure = $2)
		ORDER BY timestamp DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, filter.Location, filter.RoadClosure, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

// LatestPerLocation returns the most recent sample per distinct location.
func (r *PostgresSampleRepository) LatestPerLocation(ctx context.Context) ([]*Sample, error) {
	query := `
		SELECT DISTINCT ON (location)
			id, location, latitude, longitude,
			current_speed, free_flow_speed,
			current_travel_time, free_flow_travel_time,
			confidence, road_closure, timestamp
		FROM traffic_samples
		ORDER BY location, timestamp DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

// ListSince returns all samples at or after the given time, grouped by
// location and newest first within each group.
func (r *PostgresSampleRepository) ListSince(ctx context.Context, since time.Time) ([]*Sample, error) {
	query := `
		SELECT
			id, location, latitude, longitude,
			current_speed, free_flow_speed,
			current_travel_time, free_flow_travel_time,
			confidence, road_closure, timestamp
		FROM traffic_samples
		WHERE timestamp >= $1
		ORDER BY location, timestamp DESC
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

func scanSamples(rows pgx.Rows) ([]*Sample, error) {
	var samples []*Sample
	for rows.Next() {
		var s Sample
		err := rows.Scan(
			&s.ID,
			&s.Location,
			&s.Latitude,
			&s.Longitude,
			&s.CurrentSpeed,
			&s.FreeFlowSpeed,
			&s.CurrentTravelTime,
			&s.FreeFlowTravelTime,
			&s.Confidence,
			&s.RoadClosure,
			&s.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		samples = append(samples, &s)
	}
	return samples, rows.Err()
}

// PostgresAlertRepository is a PostgreSQL implementation of AlertRepository.
type PostgresAlertRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAlertRepository creates a new PostgreSQL alert repository.
func NewPostgresAlertRepository(pool *pgxpool.Pool) *PostgresAlertRepository {
	return &PostgresAlertRepository{pool: pool}
}

// Create appends an alert.
func (r *PostgresAlertRepository) Create(ctx context.Context, alert *Alert) error {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO traffic_alerts (location, alert_type, severity, description, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	return r.pool.QueryRow(ctx, query,
		alert.Location,
		alert.Type,
		alert.Severity,
		alert.Description,
		alert.Timestamp,
	).Scan(&alert.ID)
}

// List returns alerts matching the filter, newest first.
func (r *PostgresAlertRepository) List(ctx context.Context, filter AlertFilter) ([]*Alert, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var since *time.Time
	if !filter.Since.IsZero() {
		since = &filter.Since
	}

	query := `
		SELECT id, location, alert_type, severity, description, timestamp
		FROM traffic_alerts
		WHERE ($1 = '' OR location = $1)
		  AND ($2 = '' OR alert_type = $2)
		  AND ($3 = '' OR severity = $3)
		  AND ($4::timestamptz IS NULL OR timestamp >= $4)
		ORDER BY timestamp DESC
		LIMIT $5
	`

	rows, err := r.pool.Query(ctx, query,
		filter.Location,
		string(filter.Type),
		string(filter.Severity),
		since,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// LatestByLocationAndType returns the most recent alert for a location/type pair.
func (r *PostgresAlertRepository) LatestByLocationAndType(ctx context.Context, location string, alertType AlertType) (*Alert, error) {
	query := `
		SELECT id, location, alert_type, severity, description, timestamp
		FROM traffic_alerts
		WHERE location = $1 AND alert_type = $2
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var a Alert
	err := r.pool.QueryRow(ctx, query, location, alertType).Scan(
		&a.ID, &a.Location, &a.Type, &a.Severity, &a.Description, &a.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanAlerts(rows pgx.Rows) ([]*Alert, error) {
	var alerts []*Alert
	for rows.Next() {
		var a Alert
		err := rows.Scan(&a.ID, &a.Location, &a.Type, &a.Severity, &a.Description, &a.Timestamp)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

// Ensure the Postgres implementations satisfy the repository contracts.
var (
	_ SampleRepository = (*PostgresSampleRepository)(nil)
	_ AlertRepository  = (*PostgresAlertRepository)(nil)
)
