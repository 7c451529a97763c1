package traffic_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficpulse/trafficpulse/internal/traffic"
)

func addSample(t *testing.T, repo *traffic.InMemorySampleRepository, location string, age time.Duration, current, freeFlow, travel *float64) *traffic.Sample {
	t.Helper()
	sample := &traffic.Sample{
		Location:          location,
		Latitude:          37.78,
		Longitude:         -122.41,
		CurrentSpeed:      current,
		FreeFlowSpeed:     freeFlow,
		CurrentTravelTime: travel,
		Timestamp:         time.Now().UTC().Add(-age),
	}
	require.NoError(t, repo.Create(context.Background(), sample))
	return sample
}

func TestService_CurrentConditions_PicksLatestSample(t *testing.T) {
	repo := traffic.NewInMemorySampleRepository()
	svc := traffic.NewService(repo, zerolog.Nop())
	ctx := context.Background()

	addSample(t, repo, "downtown", 3*time.Hour, fptr(80), fptr(100), nil)
	addSample(t, repo, "downtown", 2*time.Hour, fptr(60), fptr(100), nil)
	latest := addSample(t, repo, "downtown", time.Hour, fptr(50), fptr(100), nil)

	conditions, err := svc.CurrentConditions(ctx)
	require.NoError(t, err)
	require.Len(t, conditions, 1)

	got := conditions["downtown"]
	require.NotNil(t, got)
	assert.Equal(t, *latest.CurrentSpeed, *got.CurrentSpeed)
	assert.InDelta(t, 0.5, got.Density, 1e-9)
	assert.Equal(t, traffic.CongestionMedium, got.CongestionLevel)
	assert.Equal(t, latest.Timestamp, got.Timestamp)
	assert.Equal(t, 37.78, got.Latitude)
	assert.Equal(t, -122.41, got.Longitude)
}

func TestService_CurrentConditions_MissingSpeeds(t *testing.T) {
	repo := traffic.NewInMemorySampleRepository()
	svc := traffic.NewService(repo, zerolog.Nop())

	addSample(t, repo, "tunnel", time.Minute, nil, nil, nil)

	conditions, err := svc.CurrentConditions(context.Background())
	require.NoError(t, err)

	got := conditions["tunnel"]
	require.NotNil(t, got)
	assert.Zero(t, got.Density)
	assert.Equal(t, traffic.CongestionLow, got.CongestionLevel)
}

func TestService_HistoricalAnalysis_Window(t *testing.T) {
	repo := traffic.NewInMemorySampleRepository()
	svc := traffic.NewService(repo, zerolog.Nop())
	ctx := context.Background()

	// Inside the 24h window.
	addSample(t, repo, "downtown", 23*time.Hour, fptr(30), fptr(90), fptr(600))
	addSample(t, repo, "downtown", 2*time.Hour, fptr(60), fptr(90), fptr(400))
	// Outside the window; must not contribute.
	addSample(t, repo, "downtown", 25*time.Hour, fptr(90), fptr(90), fptr(100))
	// A location whose only sample is stale is omitted entirely.
	addSample(t, repo, "airport", 25*time.Hour, fptr(50), fptr(100), nil)

	analysis, err := svc.HistoricalAnalysis(ctx, 24)
	require.NoError(t, err)
	require.Len(t, analysis, 1)

	stats := analysis["downtown"]
	require.NotNil(t, stats)
	assert.Equal(t, 45.0, stats.AverageSpeed)
	assert.Equal(t, 500.0, stats.AverageTravelTime)
	assert.Equal(t, 2, stats.SampleCount)
	// Density from the 45.0 average against the newest sample's 90 free flow.
	assert.InDelta(t, 0.5, stats.AverageDensity, 1e-9)
	_, ok := analysis["airport"]
	assert.False(t, ok)
}

func TestService_HistoricalAnalysis_Rounding(t *testing.T) {
	repo := traffic.NewInMemorySampleRepository()
	svc := traffic.NewService(repo, zerolog.Nop())

	addSample(t, repo, "downtown", time.Hour, fptr(50), fptr(100), nil)
	addSample(t, repo, "downtown", 2*time.Hour, fptr(51), fptr(100), nil)
	addSample(t, repo, "downtown", 3*time.Hour, fptr(53), fptr(100), nil)

	analysis, err := svc.HistoricalAnalysis(context.Background(), 24)
	require.NoError(t, err)

	stats := analysis["downtown"]
	require.NotNil(t, stats)
	// (50+51+53)/3 = 51.333... rounded to 2 decimals.
	assert.Equal(t, 51.33, stats.AverageSpeed)
}

func TestService_HistoricalAnalysis_IgnoresNullValues(t *testing.T) {
	repo := traffic.NewInMemorySampleRepository()
	svc := traffic.NewService(repo, zerolog.Nop())

	addSample(t, repo, "downtown", time.Hour, fptr(40), fptr(100), nil)
	addSample(t, repo, "downtown", 2*time.Hour, nil, fptr(100), fptr(300))

	analysis, err := svc.HistoricalAnalysis(context.Background(), 24)
	require.NoError(t, err)

	stats := analysis["downtown"]
	require.NotNil(t, stats)
	assert.Equal(t, 40.0, stats.AverageSpeed, "nil speeds are excluded from the mean")
	assert.Equal(t, 300.0, stats.AverageTravelTime)
	assert.Equal(t, 2, stats.SampleCount)
}

func TestService_HistoricalAnalysis_LocationWithOnlyNilSpeedsOmitted(t *testing.T) {
	repo := traffic.NewInMemorySampleRepository()
	svc := traffic.NewService(repo, zerolog.Nop())

	addSample(t, repo, "tunnel", time.Hour, nil, fptr(100), fptr(300))

	analysis, err := svc.HistoricalAnalysis(context.Background(), 24)
	require.NoError(t, err)
	assert.Empty(t, analysis)
}

func TestService_QueriesAreReadOnly(t *testing.T) {
	repo := traffic.NewInMemorySampleRepository()
	svc := traffic.NewService(repo, zerolog.Nop())
	ctx := context.Background()

	addSample(t, repo, "downtown", time.Hour, fptr(50), fptr(100), nil)

	_, err := svc.CurrentConditions(ctx)
	require.NoError(t, err)
	_, err = svc.HistoricalAnalysis(ctx, 24)
	require.NoError(t, err)

	samples, err := repo.List(ctx, traffic.SampleFilter{})
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}
