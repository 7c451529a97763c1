// Package tomtom provides a TomTom Traffic API client.
package tomtom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/trafficpulse/trafficpulse/internal/provider/resilience"
	"github.com/trafficpulse/trafficpulse/internal/traffic"
)

const (
	// ProviderName identifies this traffic provider.
	ProviderName = "tomtom"

	// DefaultBaseURL is the TomTom API base URL.
	DefaultBaseURL = "https://api.tomtom.com"

	flowEndpoint      = "/traffic/services/4/flowSegmentData/relative0/10/json"
	incidentsEndpoint = "/traffic/services/5/incidentDetails"
)

// RequestRecorder records outcome metrics for provider calls.
type RequestRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
}

// ClientConfig holds configuration for the TomTom client.
type ClientConfig struct {
	// APIKey is the TomTom API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the TomTom API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Metrics records per-call outcome metrics (optional).
	Metrics RequestRecorder

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a TomTom Traffic API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	metrics    RequestRecorder
	logger     zerolog.Logger
}

// NewClient creates a new TomTom client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// do executes the request and records the call outcome when metrics are
// configured.
func (c *Client) do(req *http.Request, operation string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.RecordRequest(ProviderName, operation, time.Since(start), err)
	}
	return resp, err
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchFlow fetches the flow segment closest to the center of the bounding
// box. The TomTom flow endpoint is point-based, so the box center stands in
// for the region.
func (c *Client) FetchFlow(ctx context.Context, box traffic.BoundingBox) (*traffic.FlowObservation, error) {
	lat, lon := box.Center()

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("point", fmt.Sprintf("%.6f,%.6f", lat, lon))
	params.Set("unit", "KMPH")
	params.Set("openLr", "false")

	reqURL := c.baseURL + flowEndpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.do(req, "fetch-flow")
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var flowResp flowSegmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&flowResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return toObservation(&flowResp), nil
}

// FetchIncidents fetches the active incidents inside the bounding box.
func (c *Client) FetchIncidents(ctx context.Context, box traffic.BoundingBox) ([]traffic.Incident, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("bbox", box.String())

	reqURL := c.baseURL + incidentsEndpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.do(req, "fetch-incidents")
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var incidentsResp incidentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&incidentsResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	incidents := make([]traffic.Incident, 0, len(incidentsResp.Incidents))
	for _, item := range incidentsResp.Incidents {
		incidents = append(incidents, traffic.Incident{
			Severity:    mapSeverity(item.Severity),
			Description: item.Description,
		})
	}
	return incidents, nil
}

// toObservation converts a TomTom response to the domain model.
func toObservation(resp *flowSegmentResponse) *traffic.FlowObservation {
	seg := resp.FlowSegmentData
	return &traffic.FlowObservation{
		CurrentSpeed:       seg.CurrentSpeed,
		FreeFlowSpeed:      seg.FreeFlowSpeed,
		CurrentTravelTime:  seg.CurrentTravelTime,
		FreeFlowTravelTime: seg.FreeFlowTravelTime,
		Confidence:         seg.Confidence,
		RoadClosure:        seg.RoadClosure,
	}
}

// mapSeverity maps a provider severity string to the domain severity.
// Unknown values are left empty so the rule engine applies its default.
func mapSeverity(s string) traffic.Severity {
	switch strings.ToUpper(s) {
	case "LOW", "MINOR":
		return traffic.SeverityLow
	case "MEDIUM", "MODERATE":
		return traffic.SeverityMedium
	case "HIGH", "MAJOR", "CRITICAL":
		return traffic.SeverityHigh
	default:
		return ""
	}
}

// TomTom API response structures.

type flowSegmentResponse struct {
	FlowSegmentData struct {
		FRC                string   `json:"frc"`
		CurrentSpeed       *float64 `json:"currentSpeed"`
		FreeFlowSpeed      *float64 `json:"freeFlowSpeed"`
		CurrentTravelTime  *float64 `json:"currentTravelTime"`
		FreeFlowTravelTime *float64 `json:"freeFlowTravelTime"`
		Confidence         *float64 `json:"confidence"`
		RoadClosure        bool     `json:"roadClosure"`
	} `json:"flowSegmentData"`
}

type incidentsResponse struct {
	Incidents []struct {
		Severity    string `json:"severity"`
		Description string `json:"description"`
	} `json:"incidents"`
}
