package mirror_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficpulse/trafficpulse/internal/mirror"
	"github.com/trafficpulse/trafficpulse/internal/traffic"
)

type fakeConditions struct {
	conditions map[string]*traffic.Condition
	err        error
}

func (f *fakeConditions) CurrentConditions(_ context.Context) (map[string]*traffic.Condition, error) {
	return f.conditions, f.err
}

type fakePublisher struct {
	batches [][]mirror.Entry
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, entries []mirror.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, entries)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func TestBridge_Sync(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeConditions{
		conditions: map[string]*traffic.Condition{
			"downtown": {
				Location:        "downtown",
				Latitude:        37.79,
				Longitude:       -122.41,
				Density:         0.5,
				CongestionLevel: traffic.CongestionMedium,
				Timestamp:       ts,
			},
			"airport": {
				Location:        "airport",
				Latitude:        37.62,
				Longitude:       -122.38,
				Density:         0.1,
				CongestionLevel: traffic.CongestionLow,
				Timestamp:       ts.Add(-time.Minute),
			},
		},
	}
	pub := &fakePublisher{}
	bridge := mirror.NewBridge(mirror.BridgeConfig{
		Conditions: source,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
	})

	result, err := bridge.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Entries)
	assert.True(t, result.Published)

	require.Len(t, pub.batches, 1)
	batch := pub.batches[0]
	require.Len(t, batch, 2)

	// Entries are ordered by location.
	assert.Equal(t, "airport", batch[0].Location)
	assert.Equal(t, "downtown", batch[1].Location)

	assert.Equal(t, 37.79, batch[1].Latitude)
	assert.Equal(t, -122.41, batch[1].Longitude)
	assert.Equal(t, 0.5, batch[1].Density)
	assert.Equal(t, "medium", batch[1].CongestionLevel)
	assert.Equal(t, ts.UnixMilli(), batch[1].TimestampMillis)
}

func TestBridge_Sync_PublishFailureIsNotFatal(t *testing.T) {
	source := &fakeConditions{
		conditions: map[string]*traffic.Condition{
			"downtown": {Location: "downtown", Density: 0.5, CongestionLevel: traffic.CongestionMedium},
		},
	}
	pub := &fakePublisher{err: errors.New("topic unavailable")}
	bridge := mirror.NewBridge(mirror.BridgeConfig{
		Conditions: source,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
	})

	result, err := bridge.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Entries)
	assert.False(t, result.Published)
}

func TestBridge_Sync_ConditionsError(t *testing.T) {
	source := &fakeConditions{err: errors.New("db down")}
	bridge := mirror.NewBridge(mirror.BridgeConfig{
		Conditions: source,
		Publisher:  &fakePublisher{},
		Logger:     zerolog.Nop(),
	})

	_, err := bridge.Sync(context.Background())
	assert.Error(t, err)
}

func TestBridge_Sync_EmptyConditions(t *testing.T) {
	pub := &fakePublisher{}
	bridge := mirror.NewBridge(mirror.BridgeConfig{
		Conditions: &fakeConditions{conditions: map[string]*traffic.Condition{}},
		Publisher:  pub,
		Logger:     zerolog.Nop(),
	})

	result, err := bridge.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Entries)
	assert.False(t, result.Published)
	assert.Empty(t, pub.batches)
}
