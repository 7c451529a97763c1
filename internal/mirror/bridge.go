// Package mirror pushes current traffic conditions to a remote sink so
// downstream consumers get a near-real-time view without querying the API.
package mirror

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/trafficpulse/trafficpulse/internal/traffic"
)

// Entry is a single location's condition in the mirror payload.
type Entry struct {
	Location        string  `json:"location"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Density         float64 `json:"density"`
	CongestionLevel string  `json:"congestion_level"`
	TimestampMillis int64   `json:"timestamp_millis"`
}

// Publisher delivers a batch of entries to the remote sink.
type Publisher interface {
	Publish(ctx context.Context, entries []Entry) error
	Close() error
}

// ConditionsSource provides the latest condition per location.
type ConditionsSource interface {
	CurrentConditions(ctx context.Context) (map[string]*traffic.Condition, error)
}

// Result summarizes a sync attempt. A failed publish is reported here
// rather than as an error so callers can treat the mirror as best-effort.
type Result struct {
	Entries   int       `json:"entries"`
	Published bool      `json:"published"`
	SyncedAt  time.Time `json:"synced_at"`
}

// Bridge reads current conditions and mirrors them through a Publisher.
type Bridge struct {
	conditions ConditionsSource
	publisher  Publisher
	logger     zerolog.Logger
}

// BridgeConfig holds dependencies for the bridge.
type BridgeConfig struct {
	Conditions ConditionsSource
	Publisher  Publisher
	Logger     zerolog.Logger
}

// NewBridge creates a new mirror bridge.
func NewBridge(cfg BridgeConfig) *Bridge {
	return &Bridge{
		conditions: cfg.Conditions,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger.With().Str("component", "mirror").Logger(),
	}
}

// Sync fetches the latest condition per location and publishes the batch.
// It returns an error only when conditions cannot be read; publish
// failures are logged and surfaced through Result.Published.
func (b *Bridge) Sync(ctx context.Context) (Result, error) {
	conditions, err := b.conditions.CurrentConditions(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetching current conditions: %w", err)
	}

	entries := buildEntries(conditions)
	result := Result{
		Entries:  len(entries),
		SyncedAt: time.Now().UTC(),
	}

	if len(entries) == 0 {
		b.logger.Debug().Msg("no conditions to mirror")
		return result, nil
	}

	if err := b.publisher.Publish(ctx, entries); err != nil {
		b.logger.Error().
			Err(err).
			Int("entries", len(entries)).
			Msg("failed to publish mirror batch")
		return result, nil
	}

	result.Published = true
	b.logger.Info().
		Int("entries", len(entries)).
		Msg("mirrored current conditions")
	return result, nil
}

func buildEntries(conditions map[string]*traffic.Condition) []Entry {
	entries := make([]Entry, 0, len(conditions))
	for location, cond := range conditions {
		if cond == nil {
			continue
		}
		entries = append(entries, Entry{
			Location:        location,
			Latitude:        cond.Latitude,
			Longitude:       cond.Longitude,
			Density:         cond.Density,
			CongestionLevel: string(cond.CongestionLevel),
			TimestampMillis: cond.Timestamp.UnixMilli(),
		})
	}

	// Stable order so batches are deterministic for consumers and tests.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Location < entries[j].Location
	})
	return entries
}
