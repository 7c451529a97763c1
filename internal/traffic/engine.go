package traffic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Default congestion ratio thresholds. A sample whose current/free-flow
// ratio drops below the high threshold raises a HIGH alert; below the
// medium threshold, MEDIUM; otherwise no alert.
const (
	DefaultHighRatio   = 0.5
	DefaultMediumRatio = 0.7
)

// Thresholds holds the congestion ratio cutoffs for the alert engine.
type Thresholds struct {
	High   float64
	Medium float64
}

// DefaultThresholds returns the standard two-tier 0.5/0.7 policy.
func DefaultThresholds() Thresholds {
	return Thresholds{High: DefaultHighRatio, Medium: DefaultMediumRatio}
}

// DedupPolicy suppresses repeated alerts for the same (location, type)
// within a time bucket. Disabled by default: repeated qualifying samples
// produce repeated alerts.
type DedupPolicy struct {
	Enabled bool
	Bucket  time.Duration
}

// EngineConfig holds configuration for the alert rule engine.
type EngineConfig struct {
	// Alerts is the alert store the engine appends to.
	Alerts AlertRepository

	// Thresholds are the congestion ratio cutoffs. Zero values fall back
	// to DefaultThresholds.
	Thresholds Thresholds

	// Dedup is the optional duplicate-suppression policy.
	Dedup DedupPolicy

	// Logger for engine operations.
	Logger zerolog.Logger
}

// Engine evaluates samples and incident records against alert rules and
// appends qualifying alerts to the store. It never updates or deletes
// existing alerts.
type Engine struct {
	alerts     AlertRepository
	thresholds Thresholds
	dedup      DedupPolicy
	logger     zerolog.Logger
}

// NewEngine creates a new alert rule engine.
func NewEngine(cfg EngineConfig) *Engine {
	thresholds := cfg.Thresholds
	if thresholds.High == 0 {
		thresholds.High = DefaultHighRatio
	}
	if thresholds.Medium == 0 {
		thresholds.Medium = DefaultMediumRatio
	}

	dedup := cfg.Dedup
	if dedup.Enabled && dedup.Bucket == 0 {
		dedup.Bucket = 15 * time.Minute
	}

	return &Engine{
		alerts:     cfg.Alerts,
		thresholds: thresholds,
		dedup:      dedup,
		logger:     cfg.Logger,
	}
}

// EvaluateSample applies the congestion rule to a sample. When both speeds
// are present and the current/free-flow ratio falls below a threshold, an
// alert is appended. The returned alert is nil when no rule fired.
func (e *Engine) EvaluateSample(ctx context.Context, sample *Sample) (*Alert, error) {
	if sample.CurrentSpeed == nil || sample.FreeFlowSpeed == nil || *sample.FreeFlowSpeed == 0 {
		return nil, nil
	}

	ratio := *sample.CurrentSpeed / *sample.FreeFlowSpeed

	var severity Severity
	switch {
	case ratio < e.thresholds.High:
		severity = SeverityHigh
	case ratio < e.thresholds.Medium:
		severity = SeverityMedium
	default:
		return nil, nil
	}

	alert := &Alert{
		Location: sample.Location,
		Type:     AlertCongestion,
		Severity: severity,
		Description: fmt.Sprintf(
			"Traffic speed reduced to %.1f km/h (normal: %.1f km/h)",
			*sample.CurrentSpeed, *sample.FreeFlowSpeed,
		),
		Timestamp: sample.Timestamp,
	}

	return e.emit(ctx, alert)
}

// RecordIncident maps one externally reported incident to an INCIDENT
// alert. Missing severity defaults to MEDIUM, missing description to a
// placeholder.
func (e *Engine) RecordIncident(ctx context.Context, location string, incident Incident) (*Alert, error) {
	severity := incident.Severity
	if !ValidSeverity(severity) {
		severity = SeverityMedium
	}

	description := incident.Description
	if description == "" {
		description = "No description available"
	}

	alert := &Alert{
		Location:    location,
		Type:        AlertIncident,
		Severity:    severity,
		Description: description,
	}

	return e.emit(ctx, alert)
}

// RecordIncidents applies the incident rule to a batch. A failure writing
// one alert is logged and does not stop the rest of the batch; the last
// error is returned after all items were attempted.
func (e *Engine) RecordIncidents(ctx context.Context, location string, incidents []Incident) (int, error) {
	var lastErr error
	created := 0
	for _, incident := range incidents {
		alert, err := e.RecordIncident(ctx, location, incident)
		if err != nil {
			e.logger.Error().
				Err(err).
				Str("location", location).
				Msg("failed to record incident alert")
			lastErr = err
			continue
		}
		if alert != nil {
			created++
		}
	}
	return created, lastErr
}

// emit appends an alert unless the dedup policy suppresses it.
func (e *Engine) emit(ctx context.Context, alert *Alert) (*Alert, error) {
	if e.dedup.Enabled {
		suppressed, err := e.isDuplicate(ctx, alert)
		if err != nil {
			return nil, err
		}
		if suppressed {
			e.logger.Debug().
				Str("location", alert.Location).
				Str("type", string(alert.Type)).
				Msg("alert suppressed by dedup policy")
			return nil, nil
		}
	}

	if err := e.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("location", alert.Location).
		Str("type", string(alert.Type)).
		Str("severity", string(alert.Severity)).
		Msg("alert created")
	return alert, nil
}

// isDuplicate reports whether an alert for the same (location, type) was
// already created within the current time bucket.
func (e *Engine) isDuplicate(ctx context.Context, alert *Alert) (bool, error) {
	latest, err := e.alerts.LatestByLocationAndType(ctx, alert.Location, alert.Type)
	if err != nil {
		if errors.Is(err, ErrAlertNotFound) {
			return false, nil
		}
		return false, err
	}

	ts := alert.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return ts.Truncate(e.dedup.Bucket).Equal(latest.Timestamp.Truncate(e.dedup.Bucket)), nil
}
