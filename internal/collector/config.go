// Package collector polls the external traffic provider for the configured
// regions and feeds the sample store and alert engine.
package collector

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/trafficpulse/trafficpulse/internal/traffic"
)

// Defaults for the collector configuration.
const (
	DefaultIntervalSeconds = 300
	DefaultRequestTimeout  = 10 * time.Second
)

// Region is one monitored area: a human-readable name plus its bounding box.
type Region struct {
	Name string              `mapstructure:"name"`
	Box  traffic.BoundingBox `mapstructure:"-"`

	// BBox is the raw configuration value: [minLon, minLat, maxLon, maxLat].
	BBox []float64 `mapstructure:"bbox"`

	// BBoxString is the compact "minLon,minLat,maxLon,maxLat" alternative,
	// usable where a float list is awkward (environment overrides).
	BBoxString string `mapstructure:"bbox_string"`
}

// ThresholdConfig holds the congestion ratio cutoffs.
type ThresholdConfig struct {
	High   float64 `mapstructure:"high"`
	Medium float64 `mapstructure:"medium"`
}

// DedupConfig holds the optional alert duplicate-suppression settings.
type DedupConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	BucketMinutes int  `mapstructure:"bucket_minutes"`
}

// Config holds the collector configuration.
type Config struct {
	IntervalSeconds       int             `mapstructure:"collection_interval_seconds"`
	HistoricalWindowHours int             `mapstructure:"historical_window_hours"`
	RequestTimeoutSeconds int             `mapstructure:"request_timeout_seconds"`
	Thresholds            ThresholdConfig `mapstructure:"congestion_thresholds"`
	Dedup                 DedupConfig     `mapstructure:"alert_dedup"`
	Regions               []Region        `mapstructure:"regions"`
}

// Interval returns the polling interval.
func (c *Config) Interval() time.Duration {
	seconds := c.IntervalSeconds
	if seconds <= 0 {
		seconds = DefaultIntervalSeconds
	}
	return time.Duration(seconds) * time.Second
}

// RequestTimeout returns the per-provider-call timeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// EngineThresholds maps the config cutoffs onto the alert engine's type.
func (c *Config) EngineThresholds() traffic.Thresholds {
	t := traffic.DefaultThresholds()
	if c.Thresholds.High > 0 {
		t.High = c.Thresholds.High
	}
	if c.Thresholds.Medium > 0 {
		t.Medium = c.Thresholds.Medium
	}
	return t
}

// DedupPolicy maps the config onto the alert engine's dedup policy.
func (c *Config) DedupPolicy() traffic.DedupPolicy {
	policy := traffic.DedupPolicy{Enabled: c.Dedup.Enabled}
	if c.Dedup.BucketMinutes > 0 {
		policy.Bucket = time.Duration(c.Dedup.BucketMinutes) * time.Minute
	}
	return policy
}

// LoadConfig reads and validates the collector configuration using viper.
// Environment variables override file values.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		v.SetConfigName("collector")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetDefault("collection_interval_seconds", DefaultIntervalSeconds)
	v.SetDefault("historical_window_hours", traffic.DefaultWindowHours)
	v.SetDefault("congestion_thresholds.high", traffic.DefaultHighRatio)
	v.SetDefault("congestion_thresholds.medium", traffic.DefaultMediumRatio)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config, viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = false
	})); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate resolves the raw bbox slices into bounding boxes and checks the
// configuration for malformed values. Malformed configuration fails fast.
func (c *Config) Validate() error {
	if len(c.Regions) == 0 {
		return fmt.Errorf("at least one monitored region is required")
	}

	seen := make(map[string]bool, len(c.Regions))
	for i := range c.Regions {
		region := &c.Regions[i]
		if region.Name == "" {
			return fmt.Errorf("region %d: name is required", i+1)
		}
		if seen[region.Name] {
			return fmt.Errorf("region %q: duplicate name", region.Name)
		}
		seen[region.Name] = true

		switch {
		case region.BBoxString != "" && len(region.BBox) > 0:
			return fmt.Errorf("region %q: bbox and bbox_string are mutually exclusive", region.Name)
		case region.BBoxString != "":
			box, err := traffic.ParseBoundingBox(region.BBoxString)
			if err != nil {
				return fmt.Errorf("region %q: %w", region.Name, err)
			}
			region.Box = box
		case len(region.BBox) == 4:
			region.Box = traffic.BoundingBox{
				MinLon: region.BBox[0],
				MinLat: region.BBox[1],
				MaxLon: region.BBox[2],
				MaxLat: region.BBox[3],
			}
			if err := region.Box.Validate(); err != nil {
				return fmt.Errorf("region %q: %w", region.Name, err)
			}
		default:
			return fmt.Errorf("region %q: bbox must contain exactly 4 coordinates (minLon,minLat,maxLon,maxLat), got %d", region.Name, len(region.BBox))
		}
	}

	// Check the post-default cutoffs so a lone high override cannot slip
	// past the default medium and invert the tiers.
	thresholds := c.EngineThresholds()
	if thresholds.High > thresholds.Medium {
		return fmt.Errorf("congestion_thresholds: high (%g) must not exceed medium (%g)", thresholds.High, thresholds.Medium)
	}
	return nil
}
