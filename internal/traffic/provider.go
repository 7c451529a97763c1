package traffic

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// BoundingBox is a rectangular region in min/max longitude and latitude.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// ParseBoundingBox parses a "minLon,minLat,maxLon,maxLat" string. It fails
// fast with a descriptive error on a wrong coordinate count or inverted
// bounds; malformed configuration is never retried.
func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("bounding box %q: expected 4 coordinates (minLon,minLat,maxLon,maxLat), got %d", s, len(parts))
	}

	coords := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("bounding box %q: coordinate %d is not a number: %w", s, i+1, err)
		}
		coords[i] = v
	}

	box := BoundingBox{MinLon: coords[0], MinLat: coords[1], MaxLon: coords[2], MaxLat: coords[3]}
	return box, box.Validate()
}

// Validate checks bounds ordering and coordinate ranges.
func (b BoundingBox) Validate() error {
	if b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("bounding box latitude out of range [-90, 90]")
	}
	if b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("bounding box longitude out of range [-180, 180]")
	}
	if b.MinLon >= b.MaxLon || b.MinLat >= b.MaxLat {
		return fmt.Errorf("bounding box has inverted or empty bounds")
	}
	return nil
}

// Center returns the latitude and longitude of the box center.
func (b BoundingBox) Center() (lat, lon float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2
}

// String renders the box in provider wire format: minLon,minLat,maxLon,maxLat.
func (b BoundingBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Provider is the external traffic data source contract. Implementations
// wrap a concrete vendor API and return normalized records.
type Provider interface {
	// FetchFlow returns the current flow observation for a region.
	FetchFlow(ctx context.Context, box BoundingBox) (*FlowObservation, error)

	// FetchIncidents returns the active incidents inside a region.
	FetchIncidents(ctx context.Context, box BoundingBox) ([]Incident, error)
}
