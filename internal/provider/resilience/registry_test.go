package resilience_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficpulse/trafficpulse/internal/provider/resilience"
)

func TestRegistry_GetHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("tomtom", resilience.NewClient(resilience.DefaultClientConfig("tomtom")))

	health := registry.GetHealth("tomtom")
	require.NotNil(t, health)
	assert.Equal(t, "tomtom", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)
	assert.Empty(t, health.LastError)
}

func TestRegistry_GetHealth_Unknown(t *testing.T) {
	registry := resilience.NewRegistry()

	assert.Nil(t, registry.GetHealth("nobody"))
}

func TestRegistry_RecordSuccess(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("tomtom", resilience.NewClient(resilience.DefaultClientConfig("tomtom")))

	registry.RecordSuccess("tomtom")

	health := registry.GetHealth("tomtom")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)
}

func TestRegistry_RecordFailure(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("tomtom", resilience.NewClient(resilience.DefaultClientConfig("tomtom")))

	registry.RecordFailure("tomtom", errors.New("flow endpoint timed out"))

	health := registry.GetHealth("tomtom")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "flow endpoint timed out", health.LastError)
}

func TestRegistry_RecordUnknownProviderIsNoop(t *testing.T) {
	registry := resilience.NewRegistry()

	// Recording against an unregistered name must not panic.
	registry.RecordSuccess("nobody")
	registry.RecordFailure("nobody", errors.New("boom"))

	assert.Empty(t, registry.GetAllHealth())
}

func TestRegistry_GetAllHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("tomtom", resilience.NewClient(resilience.DefaultClientConfig("tomtom")))
	registry.Register("here", resilience.NewClient(resilience.DefaultClientConfig("here")))

	health := registry.GetAllHealth()
	assert.Len(t, health, 2)

	names := map[string]bool{}
	for _, h := range health {
		names[h.Name] = true
	}
	assert.True(t, names["tomtom"])
	assert.True(t, names["here"])
}

func TestProviderHealth_StatePredicates(t *testing.T) {
	tests := []struct {
		state     gobreaker.State
		healthy   bool
		degraded  bool
		unhealthy bool
	}{
		{gobreaker.StateClosed, true, false, false},
		{gobreaker.StateHalfOpen, false, true, false},
		{gobreaker.StateOpen, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.healthy, h.IsHealthy())
			assert.Equal(t, tt.degraded, h.IsDegraded())
			assert.Equal(t, tt.unhealthy, h.IsUnhealthy())
		})
	}
}
