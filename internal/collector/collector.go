package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/trafficpulse/trafficpulse/internal/provider/resilience"
	"github.com/trafficpulse/trafficpulse/internal/traffic"
)

// Collector fetches flow and incident data for every monitored region,
// persists normalized samples, and drives the alert rule engine.
type Collector struct {
	config       *Config
	provider     traffic.Provider
	providerName string
	samples      traffic.SampleRepository
	engine       *traffic.Engine
	health       *resilience.Registry
	logger       zerolog.Logger
}

// CollectorConfig holds the collector's dependencies.
type CollectorConfig struct {
	Config   *Config
	Provider traffic.Provider
	Samples  traffic.SampleRepository
	Engine   *traffic.Engine

	// Health receives per-call success/failure recordings for the
	// provider (optional).
	Health *resilience.Registry

	Logger zerolog.Logger
}

// New creates a new collector.
func New(cfg CollectorConfig) *Collector {
	c := &Collector{
		config:   cfg.Config,
		provider: cfg.Provider,
		samples:  cfg.Samples,
		engine:   cfg.Engine,
		health:   cfg.Health,
		logger:   cfg.Logger,
	}
	if named, ok := cfg.Provider.(interface{ Name() string }); ok {
		c.providerName = named.Name()
	}
	return c
}

func (c *Collector) noteProviderCall(err error) {
	if c.health == nil || c.providerName == "" {
		return
	}
	if err != nil {
		c.health.RecordFailure(c.providerName, err)
		return
	}
	c.health.RecordSuccess(c.providerName)
}

// CycleResult summarizes one collection cycle.
type CycleResult struct {
	StartTime     time.Time
	Duration      time.Duration
	Regions       int
	Succeeded     int
	Failed        int
	SamplesStored int
	AlertsRaised  int
}

// RunCycle processes every configured region once. A failure fetching or
// processing one region is logged and does not abort the remaining regions.
func (c *Collector) RunCycle(ctx context.Context) *CycleResult {
	result := &CycleResult{
		StartTime: time.Now(),
		Regions:   len(c.config.Regions),
	}

	for _, region := range c.config.Regions {
		if err := c.collectRegion(ctx, region, result); err != nil {
			c.logger.Error().
				Err(err).
				Str("region", region.Name).
				Msg("region collection failed")
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	result.Duration = time.Since(result.StartTime)

	c.logger.Info().
		Int("regions", result.Regions).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("samples", result.SamplesStored).
		Int("alerts", result.AlertsRaised).
		Dur("duration", result.Duration).
		Msg("collection cycle completed")

	return result
}

// collectRegion fetches and processes one region: persist a flow sample,
// run the congestion rule on it, then record incidents.
func (c *Collector) collectRegion(ctx context.Context, region Region, result *CycleResult) error {
	flowCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout())
	flow, err := c.provider.FetchFlow(flowCtx, region.Box)
	cancel()
	c.noteProviderCall(err)
	if err != nil {
		return err
	}

	lat, lon := region.Box.Center()
	sample := &traffic.Sample{
		Location:           region.Name,
		Latitude:           lat,
		Longitude:          lon,
		CurrentSpeed:       flow.CurrentSpeed,
		FreeFlowSpeed:      flow.FreeFlowSpeed,
		CurrentTravelTime:  flow.CurrentTravelTime,
		FreeFlowTravelTime: flow.FreeFlowTravelTime,
		Confidence:         flow.Confidence,
		RoadClosure:        flow.RoadClosure,
	}

	if err := c.samples.Create(ctx, sample); err != nil {
		// Without the persisted sample there is nothing to evaluate;
		// skip the congestion check but still look at incidents.
		c.logger.Error().
			Err(err).
			Str("region", region.Name).
			Msg("failed to persist sample, skipping congestion check")
	} else {
		result.SamplesStored++
		alert, evalErr := c.engine.EvaluateSample(ctx, sample)
		if evalErr != nil {
			c.logger.Error().
				Err(evalErr).
				Str("region", region.Name).
				Msg("congestion evaluation failed")
		} else if alert != nil {
			result.AlertsRaised++
		}
	}

	incidentCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout())
	incidents, err := c.provider.FetchIncidents(incidentCtx, region.Box)
	cancel()
	c.noteProviderCall(err)
	if err != nil {
		return err
	}

	created, err := c.engine.RecordIncidents(ctx, region.Name, incidents)
	result.AlertsRaised += created
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("region", region.Name).
			Msg("some incident alerts were not recorded")
	}
	return nil
}

// Run drives collection cycles on a fixed interval until the context is
// cancelled. Cycles never overlap: the next one starts only after the
// previous cycle and its interval wait complete. An in-flight cycle runs
// to completion on shutdown; the loop stops before starting a new one.
func (c *Collector) Run(ctx context.Context) {
	interval := c.config.Interval()
	c.logger.Info().
		Dur("interval", interval).
		Int("regions", len(c.config.Regions)).
		Msg("collector started")

	for {
		c.RunCycle(ctx)

		select {
		case <-ctx.Done():
			c.logger.Info().Msg("collector stopped")
			return
		case <-time.After(interval):
		}
	}
}
