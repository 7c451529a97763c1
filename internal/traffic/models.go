// Package traffic provides the traffic sample store, congestion metrics,
// and alerting rules at the core of TrafficPulse.
package traffic

import (
	"errors"
	"time"
)

// Store errors.
var (
	ErrSampleNotFound = errors.New("sample not found")
	ErrAlertNotFound  = errors.New("alert not found")
)

// AlertType classifies an alert.
type AlertType string

const (
	AlertCongestion AlertType = "CONGESTION"
	AlertIncident   AlertType = "INCIDENT"
	AlertClosure    AlertType = "CLOSURE"
)

// Severity grades an alert.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// ValidSeverity reports whether s is a known severity value.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// ValidAlertType reports whether t is a known alert type.
func ValidAlertType(t AlertType) bool {
	switch t {
	case AlertCongestion, AlertIncident, AlertClosure:
		return true
	}
	return false
}

// Sample is one observed traffic measurement for a monitored location.
// Samples are append-only: once written they are never mutated, and the
// current state of a location is its most recent sample.
type Sample struct {
	ID       int64
	Location string

	// Latitude and Longitude carry the structured key for the location
	// (the center of the monitored region) alongside the opaque identifier,
	// so downstream consumers never parse coordinates out of the name.
	Latitude  float64
	Longitude float64

	CurrentSpeed       *float64
	FreeFlowSpeed      *float64
	CurrentTravelTime  *float64
	FreeFlowTravelTime *float64
	Confidence         *float64
	RoadClosure        bool
	Timestamp          time.Time
}

// Alert is a derived congestion or incident notification. Alerts are
// created by the rule engine and never updated.
type Alert struct {
	ID          int64
	Location    string
	Type        AlertType
	Severity    Severity
	Description string
	Timestamp   time.Time
}

// FlowObservation is a normalized flow measurement returned by an external
// traffic provider for one region. All speed and travel-time fields are
// optional; providers frequently omit them.
type FlowObservation struct {
	CurrentSpeed       *float64
	FreeFlowSpeed      *float64
	CurrentTravelTime  *float64
	FreeFlowTravelTime *float64
	Confidence         *float64
	RoadClosure        bool
}

// Incident is a normalized incident record returned by an external provider.
// Severity and Description may be empty when the provider omits them.
type Incident struct {
	Severity    Severity
	Description string
}
