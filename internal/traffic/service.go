package traffic

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// DefaultWindowHours is the default historical analysis window.
const DefaultWindowHours = 24

// Condition is the projection of a location's most recent sample through
// the congestion calculator.
type Condition struct {
	Location        string
	Latitude        float64
	Longitude       float64
	CurrentSpeed    *float64
	FreeFlowSpeed   *float64
	Density         float64
	CongestionLevel CongestionLevel
	RoadClosure     bool
	Timestamp       time.Time
}

// LocationStats is the windowed aggregate view for one location.
type LocationStats struct {
	Location          string
	AverageSpeed      float64
	AverageTravelTime float64
	AverageDensity    float64
	SampleCount       int
}

// Service answers point-in-time and windowed aggregate queries over the
// sample store. Both queries are read-only.
type Service struct {
	samples SampleRepository
	logger  zerolog.Logger
}

// NewService creates a new aggregation service.
func NewService(samples SampleRepository, logger zerolog.Logger) *Service {
	return &Service{samples: samples, logger: logger}
}

// CurrentConditions returns, for every distinct location in the store, the
// projection of its single most recent sample.
func (s *Service) CurrentConditions(ctx context.Context) (map[string]*Condition, error) {
	latest, err := s.samples.LatestPerLocation(ctx)
	if err != nil {
		return nil, err
	}

	conditions := make(map[string]*Condition, len(latest))
	for _, sample := range latest {
		conditions[sample.Location] = &Condition{
			Location:        sample.Location,
			Latitude:        sample.Latitude,
			Longitude:       sample.Longitude,
			CurrentSpeed:    sample.CurrentSpeed,
			FreeFlowSpeed:   sample.FreeFlowSpeed,
			Density:         Density(sample.CurrentSpeed, sample.FreeFlowSpeed),
			CongestionLevel: LevelFor(sample.CurrentSpeed, sample.FreeFlowSpeed),
			RoadClosure:     sample.RoadClosure,
			Timestamp:       sample.Timestamp,
		}
	}
	return conditions, nil
}

// HistoricalAnalysis returns per-location averages over the trailing window.
// Averages ignore missing values and are rounded to 2 decimal places. The
// average density is derived from the average speed and the free-flow speed
// of the most recent in-window sample, not averaged separately. Locations
// with no in-window speed measurements are omitted.
func (s *Service) HistoricalAnalysis(ctx context.Context, windowHours int) (map[string]*LocationStats, error) {
	if windowHours <= 0 {
		windowHours = DefaultWindowHours
	}
	since := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)

	samples, err := s.samples.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}

	type accumulator struct {
		speedSum    float64
		speedCount  int
		travelSum   float64
		travelCount int
		// newest carries the free-flow baseline for density derivation.
		newest *Sample
		total  int
	}

	acc := make(map[string]*accumulator)
	for _, sample := range samples {
		a, ok := acc[sample.Location]
		if !ok {
			a = &accumulator{}
			acc[sample.Location] = a
		}
		a.total++
		if sample.CurrentSpeed != nil {
			a.speedSum += *sample.CurrentSpeed
			a.speedCount++
		}
		if sample.CurrentTravelTime != nil {
			a.travelSum += *sample.CurrentTravelTime
			a.travelCount++
		}
		if a.newest == nil || sample.Timestamp.After(a.newest.Timestamp) {
			a.newest = sample
		}
	}

	analysis := make(map[string]*LocationStats, len(acc))
	for location, a := range acc {
		if a.speedCount == 0 {
			// No congestion signal for this location in the window.
			continue
		}

		avgSpeed := a.speedSum / float64(a.speedCount)
		avgTravel := 0.0
		if a.travelCount > 0 {
			avgTravel = a.travelSum / float64(a.travelCount)
		}

		analysis[location] = &LocationStats{
			Location:          location,
			AverageSpeed:      round2(avgSpeed),
			AverageTravelTime: round2(avgTravel),
			AverageDensity:    Density(&avgSpeed, a.newest.FreeFlowSpeed),
			SampleCount:       a.total,
		}
	}
	return analysis, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
