// Package route provides monitored route management services.
package route

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrRouteNotFound = errors.New("route not found")
)

// Route represents a saved route whose traffic conditions are monitored.
type Route struct {
	ID          string
	Name        string
	Description *string
	Origin      Point
	Destination Point
	Waypoints   []Point
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Point represents a geographic point.
type Point struct {
	Lat float64
	Lon float64
}
