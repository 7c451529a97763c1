package traffic

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemorySampleRepository is an in-memory implementation of SampleRepository.
// This is intended for testing. Production should use PostgresSampleRepository.
type InMemorySampleRepository struct {
	mu      sync.RWMutex
	nextID  int64
	samples []*Sample

	// FailNext makes the next Create call fail with the given error.
	// Tests use it to exercise write-failure paths.
	FailNext error
}

// NewInMemorySampleRepository creates a new in-memory sample repository.
func NewInMemorySampleRepository() *InMemorySampleRepository {
	return &InMemorySampleRepository{nextID: 1}
}

// Create appends a sample.
func (r *InMemorySampleRepository) Create(_ context.Context, sample *Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailNext != nil {
		err := r.FailNext
		r.FailNext = nil
		return err
	}

	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}
	sample.ID = r.nextID
	r.nextID++

	cpy := *sample
	r.samples = append(r.samples, &cpy)
	return nil
}

// List returns samples matching the filter, newest first.
func (r *InMemorySampleRepository) List(_ context.Context, filter SampleFilter) ([]*Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Sample
	for _, s := range r.samples {
		if filter.Location != "" && s.Location != filter.Location {
			continue
		}
		if filter.RoadClosure != nil && s.RoadClosure != *filter.RoadClosure {
			continue
		}
		cpy := *s
		out = append(out, &cpy)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LatestPerLocation returns the most recent sample per distinct location.
func (r *InMemorySampleRepository) LatestPerLocation(_ context.Context) ([]*Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[string]*Sample)
	for _, s := range r.samples {
		cur, ok := latest[s.Location]
		if !ok || s.Timestamp.After(cur.Timestamp) {
			latest[s.Location] = s
		}
	}

	out := make([]*Sample, 0, len(latest))
	for _, s := range latest {
		cpy := *s
		out = append(out, &cpy)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Location < out[j].Location
	})
	return out, nil
}

// ListSince returns all samples at or after since, grouped by location and
// newest first within each group.
func (r *InMemorySampleRepository) ListSince(_ context.Context, since time.Time) ([]*Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Sample
	for _, s := range r.samples {
		if s.Timestamp.Before(since) {
			continue
		}
		cpy := *s
		out = append(out, &cpy)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// InMemoryAlertRepository is an in-memory implementation of AlertRepository.
type InMemoryAlertRepository struct {
	mu     sync.RWMutex
	nextID int64
	alerts []*Alert

	// FailNext makes the next Create call fail with the given error.
	// Used to test per-item failure isolation.
	FailNext error
}

// NewInMemoryAlertRepository creates a new in-memory alert repository.
func NewInMemoryAlertRepository() *InMemoryAlertRepository {
	return &InMemoryAlertRepository{nextID: 1}
}

// Create appends an alert.
func (r *InMemoryAlertRepository) Create(_ context.Context, alert *Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailNext != nil {
		err := r.FailNext
		r.FailNext = nil
		return err
	}

	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}
	alert.ID = r.nextID
	r.nextID++

	cpy := *alert
	r.alerts = append(r.alerts, &cpy)
	return nil
}

// List returns alerts matching the filter, newest first.
func (r *InMemoryAlertRepository) List(_ context.Context, filter AlertFilter) ([]*Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Alert
	for _, a := range r.alerts {
		if filter.Location != "" && a.Location != filter.Location {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		if !filter.Since.IsZero() && a.Timestamp.Before(filter.Since) {
			continue
		}
		cpy := *a
		out = append(out, &cpy)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LatestByLocationAndType returns the most recent alert for a location/type pair.
func (r *InMemoryAlertRepository) LatestByLocationAndType(_ context.Context, location string, alertType AlertType) (*Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Alert
	for _, a := range r.alerts {
		if a.Location != location || a.Type != alertType {
			continue
		}
		if latest == nil || a.Timestamp.After(latest.Timestamp) {
			latest = a
		}
	}
	if latest == nil {
		return nil, ErrAlertNotFound
	}
	cpy := *latest
	return &cpy, nil
}

var (
	_ SampleRepository = (*InMemorySampleRepository)(nil)
	_ AlertRepository  = (*InMemoryAlertRepository)(nil)
)
