package collector_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficpulse/trafficpulse/internal/collector"
	"github.com/trafficpulse/trafficpulse/internal/traffic"
)

func fptr(v float64) *float64 { return &v }

// fakeProvider serves canned flow and incident data per region center.
type fakeProvider struct {
	flows     map[string]*traffic.FlowObservation
	incidents map[string][]traffic.Incident
	flowErrs  map[string]error

	flowCalls     int
	incidentCalls int
}

func regionKey(box traffic.BoundingBox) string {
	return box.String()
}

func (p *fakeProvider) FetchFlow(_ context.Context, box traffic.BoundingBox) (*traffic.FlowObservation, error) {
	p.flowCalls++
	key := regionKey(box)
	if err := p.flowErrs[key]; err != nil {
		return nil, err
	}
	flow, ok := p.flows[key]
	if !ok {
		return &traffic.FlowObservation{}, nil
	}
	return flow, nil
}

func (p *fakeProvider) FetchIncidents(_ context.Context, box traffic.BoundingBox) ([]traffic.Incident, error) {
	p.incidentCalls++
	return p.incidents[regionKey(box)], nil
}

var (
	boxA = traffic.BoundingBox{MinLon: -122.43, MinLat: 37.77, MaxLon: -122.39, MaxLat: 37.81}
	boxB = traffic.BoundingBox{MinLon: 4.86, MinLat: 52.34, MaxLon: 4.95, MaxLat: 52.40}
)

func testConfig() *collector.Config {
	cfg := &collector.Config{
		IntervalSeconds: 1,
		Regions: []collector.Region{
			{Name: "region-a", BBox: []float64{boxA.MinLon, boxA.MinLat, boxA.MaxLon, boxA.MaxLat}},
			{Name: "region-b", BBox: []float64{boxB.MinLon, boxB.MinLat, boxB.MaxLon, boxB.MaxLat}},
		},
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func newCollector(cfg *collector.Config, provider traffic.Provider, samples traffic.SampleRepository, alerts traffic.AlertRepository) *collector.Collector {
	engine := traffic.NewEngine(traffic.EngineConfig{
		Alerts: alerts,
		Logger: zerolog.Nop(),
	})
	return collector.New(collector.CollectorConfig{
		Config:   cfg,
		Provider: provider,
		Samples:  samples,
		Engine:   engine,
		Logger:   zerolog.Nop(),
	})
}

func TestCollector_RunCycle_PersistsSamplesAndAlerts(t *testing.T) {
	provider := &fakeProvider{
		flows: map[string]*traffic.FlowObservation{
			regionKey(boxA): {CurrentSpeed: fptr(30), FreeFlowSpeed: fptr(100)},
			regionKey(boxB): {CurrentSpeed: fptr(95), FreeFlowSpeed: fptr(100)},
		},
		incidents: map[string][]traffic.Incident{
			regionKey(boxB): {{Severity: traffic.SeverityHigh, Description: "bridge closed"}},
		},
	}
	samples := traffic.NewInMemorySampleRepository()
	alerts := traffic.NewInMemoryAlertRepository()
	c := newCollector(testConfig(), provider, samples, alerts)

	result := c.RunCycle(context.Background())

	assert.Equal(t, 2, result.Regions)
	assert.Equal(t, 2, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 2, result.SamplesStored)
	// One congestion alert for region-a plus one incident for region-b.
	assert.Equal(t, 2, result.AlertsRaised)

	stored, err := samples.List(context.Background(), traffic.SampleFilter{Location: "region-a"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 30.0, *stored[0].CurrentSpeed)
	assert.False(t, stored[0].Timestamp.IsZero())

	lat, lon := boxA.Center()
	assert.Equal(t, lat, stored[0].Latitude)
	assert.Equal(t, lon, stored[0].Longitude)

	congestion, err := alerts.List(context.Background(), traffic.AlertFilter{Type: traffic.AlertCongestion})
	require.NoError(t, err)
	require.Len(t, congestion, 1)
	assert.Equal(t, "region-a", congestion[0].Location)
	assert.Equal(t, traffic.SeverityHigh, congestion[0].Severity)

	incident, err := alerts.List(context.Background(), traffic.AlertFilter{Type: traffic.AlertIncident})
	require.NoError(t, err)
	require.Len(t, incident, 1)
	assert.Equal(t, "region-b", incident[0].Location)
}

func TestCollector_RunCycle_RegionFailureIsIsolated(t *testing.T) {
	provider := &fakeProvider{
		flows: map[string]*traffic.FlowObservation{
			regionKey(boxB): {CurrentSpeed: fptr(80), FreeFlowSpeed: fptr(100)},
		},
		flowErrs: map[string]error{
			regionKey(boxA): errors.New("provider timeout"),
		},
	}
	samples := traffic.NewInMemorySampleRepository()
	alerts := traffic.NewInMemoryAlertRepository()
	c := newCollector(testConfig(), provider, samples, alerts)

	result := c.RunCycle(context.Background())

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.SamplesStored)

	// Region B's sample made it in despite region A failing.
	stored, err := samples.List(context.Background(), traffic.SampleFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "region-b", stored[0].Location)
}

func TestCollector_RunCycle_SamplePersistFailureSkipsCongestionCheck(t *testing.T) {
	cfg := &collector.Config{
		IntervalSeconds: 1,
		Regions: []collector.Region{
			{Name: "region-a", BBox: []float64{boxA.MinLon, boxA.MinLat, boxA.MaxLon, boxA.MaxLat}},
		},
	}
	require.NoError(t, cfg.Validate())

	// Heavy congestion that would normally raise an alert, plus an incident.
	provider := &fakeProvider{
		flows: map[string]*traffic.FlowObservation{
			regionKey(boxA): {CurrentSpeed: fptr(30), FreeFlowSpeed: fptr(100)},
		},
		incidents: map[string][]traffic.Incident{
			regionKey(boxA): {{Severity: traffic.SeverityHigh, Description: "pileup on the ring road"}},
		},
	}
	samples := traffic.NewInMemorySampleRepository()
	samples.FailNext = errors.New("write refused")
	alerts := traffic.NewInMemoryAlertRepository()
	c := newCollector(cfg, provider, samples, alerts)

	result := c.RunCycle(context.Background())

	// The failed write skips the congestion check but not the region.
	assert.Equal(t, 1, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.Zero(t, result.SamplesStored)
	assert.Equal(t, 1, result.AlertsRaised)

	congestion, err := alerts.List(context.Background(), traffic.AlertFilter{Type: traffic.AlertCongestion})
	require.NoError(t, err)
	assert.Empty(t, congestion)

	incident, err := alerts.List(context.Background(), traffic.AlertFilter{Type: traffic.AlertIncident})
	require.NoError(t, err)
	require.Len(t, incident, 1)
	assert.Equal(t, "region-a", incident[0].Location)
}

func TestCollector_Run_StopsOnCancel(t *testing.T) {
	provider := &fakeProvider{}
	samples := traffic.NewInMemorySampleRepository()
	alerts := traffic.NewInMemoryAlertRepository()
	c := newCollector(testConfig(), provider, samples, alerts)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	// Let the first cycle happen, then cancel between cycles.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop after context cancellation")
	}

	assert.GreaterOrEqual(t, provider.flowCalls, 2)
}
