package tomtom_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficpulse/trafficpulse/internal/provider/resilience"
	"github.com/trafficpulse/trafficpulse/internal/traffic"
	"github.com/trafficpulse/trafficpulse/internal/traffic/tomtom"
)

var testBox = traffic.BoundingBox{MinLon: -122.43, MinLat: 37.77, MaxLon: -122.39, MaxLat: 37.81}

func newTestClient(baseURL string) *tomtom.Client {
	return tomtom.NewClient(tomtom.ClientConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		HTTPClient: resilience.NewClient(resilience.ClientConfig{
			Name:       "tomtom-test",
			MaxRetries: 1,
		}),
	})
}

func TestClient_FetchFlow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/traffic/services/4/flowSegmentData/relative0/10/json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "KMPH", r.URL.Query().Get("unit"))
		// The box center stands in for the region.
		assert.Equal(t, "37.790000,-122.410000", r.URL.Query().Get("point"))

		response := map[string]interface{}{
			"flowSegmentData": map[string]interface{}{
				"frc":                "FRC0",
				"currentSpeed":       42.0,
				"freeFlowSpeed":      88.0,
				"currentTravelTime":  150.0,
				"freeFlowTravelTime": 72.0,
				"confidence":         0.95,
				"roadClosure":        false,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	obs, err := client.FetchFlow(context.Background(), testBox)
	require.NoError(t, err)

	require.NotNil(t, obs.CurrentSpeed)
	assert.Equal(t, 42.0, *obs.CurrentSpeed)
	require.NotNil(t, obs.FreeFlowSpeed)
	assert.Equal(t, 88.0, *obs.FreeFlowSpeed)
	require.NotNil(t, obs.Confidence)
	assert.Equal(t, 0.95, *obs.Confidence)
	assert.False(t, obs.RoadClosure)
}

func TestClient_FetchFlow_OmittedFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := map[string]interface{}{
			"flowSegmentData": map[string]interface{}{
				"frc":         "FRC2",
				"roadClosure": true,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	obs, err := client.FetchFlow(context.Background(), testBox)
	require.NoError(t, err)
	assert.Nil(t, obs.CurrentSpeed)
	assert.Nil(t, obs.FreeFlowSpeed)
	assert.Nil(t, obs.Confidence)
	assert.True(t, obs.RoadClosure)
}

func TestClient_FetchFlow_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchFlow(context.Background(), testBox)
	assert.Error(t, err)
}

func TestClient_FetchIncidents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/traffic/services/5/incidentDetails", r.URL.Path)
		assert.Equal(t, "-122.43,37.77,-122.39,37.81", r.URL.Query().Get("bbox"))

		response := map[string]interface{}{
			"incidents": []map[string]interface{}{
				{"severity": "major", "description": "overturned truck"},
				{"severity": "minor", "description": "shoulder blocked"},
				{},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	incidents, err := client.FetchIncidents(context.Background(), testBox)
	require.NoError(t, err)
	require.Len(t, incidents, 3)

	assert.Equal(t, traffic.SeverityHigh, incidents[0].Severity)
	assert.Equal(t, "overturned truck", incidents[0].Description)
	assert.Equal(t, traffic.SeverityLow, incidents[1].Severity)
	// Unknown severity stays empty so the rule engine defaults it.
	assert.Equal(t, traffic.Severity(""), incidents[2].Severity)
	assert.Empty(t, incidents[2].Description)
}

func TestClient_FetchIncidents_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"incidents": []interface{}{}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	incidents, err := client.FetchIncidents(context.Background(), testBox)
	require.NoError(t, err)
	assert.Empty(t, incidents)
}

type recordedCall struct {
	provider  string
	operation string
	err       error
}

type fakeRecorder struct {
	calls []recordedCall
}

func (r *fakeRecorder) RecordRequest(provider, operation string, _ time.Duration, err error) {
	r.calls = append(r.calls, recordedCall{provider: provider, operation: operation, err: err})
}

func TestClient_RecordsRequestMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"incidents": []interface{}{}})
	}))
	defer server.Close()

	recorder := &fakeRecorder{}
	client := tomtom.NewClient(tomtom.ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		HTTPClient: resilience.NewClient(resilience.ClientConfig{
			Name:       "tomtom-test",
			MaxRetries: 1,
		}),
		Metrics: recorder,
	})

	_, err := client.FetchIncidents(context.Background(), testBox)
	require.NoError(t, err)

	require.Len(t, recorder.calls, 1)
	assert.Equal(t, tomtom.ProviderName, recorder.calls[0].provider)
	assert.Equal(t, "fetch-incidents", recorder.calls[0].operation)
	assert.NoError(t, recorder.calls[0].err)
}
