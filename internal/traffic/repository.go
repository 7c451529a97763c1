package traffic

import (
	"context"
	"time"
)

// SampleFilter narrows sample listings.
type SampleFilter struct {
	// Location restricts results to one location identifier.
	Location string

	// RoadClosure, when non-nil, restricts results by closure flag.
	RoadClosure *bool

	// Limit caps the number of returned samples. Zero means the
	// repository default.
	Limit int
}

// AlertFilter narrows alert listings.
type AlertFilter struct {
	Location string
	Type     AlertType
	Severity Severity

	// Since, when non-zero, restricts results to alerts at or after
	// the given time.
	Since time.Time

	Limit int
}

// SampleRepository is the persistence contract for traffic samples. The
// log is append-only; there are no update or delete operations.
type SampleRepository interface {
	// Create appends a sample and fills in its ID and timestamp.
	Create(ctx context.Context, sample *Sample) error

	// List returns samples matching the filter, newest first.
	List(ctx context.Context, filter SampleFilter) ([]*Sample, error)

	// LatestPerLocation returns the single most recent sample for every
	// distinct location present in the store.
	LatestPerLocation(ctx context.Context) ([]*Sample, error)

	// ListSince returns all samples with timestamp >= since, ordered by
	// location and then newest first within each location.
	ListSince(ctx context.Context, since time.Time) ([]*Sample, error)
}

// AlertRepository is the persistence contract for alerts. Alerts are
// append-only like samples.
type AlertRepository interface {
	// Create appends an alert and fills in its ID and timestamp.
	Create(ctx context.Context, alert *Alert) error

	// List returns alerts matching the filter, newest first.
	List(ctx context.Context, filter AlertFilter) ([]*Alert, error)

	// LatestByLocationAndType returns the most recent alert for a
	// (location, type) pair, or ErrAlertNotFound when none exists.
	// Used by the optional dedup policy.
	LatestByLocationAndType(ctx context.Context, location string, alertType AlertType) (*Alert, error)
}
