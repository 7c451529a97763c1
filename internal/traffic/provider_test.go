package traffic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficpulse/trafficpulse/internal/traffic"
)

func TestParseBoundingBox(t *testing.T) {
	box, err := traffic.ParseBoundingBox("-122.43,37.77,-122.39,37.81")
	require.NoError(t, err)
	assert.Equal(t, -122.43, box.MinLon)
	assert.Equal(t, 37.77, box.MinLat)
	assert.Equal(t, -122.39, box.MaxLon)
	assert.Equal(t, 37.81, box.MaxLat)

	lat, lon := box.Center()
	assert.InDelta(t, 37.79, lat, 1e-9)
	assert.InDelta(t, -122.41, lon, 1e-9)

	assert.Equal(t, "-122.43,37.77,-122.39,37.81", box.String())
}

func TestParseBoundingBox_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few coordinates", "-122.43,37.77,-122.39"},
		{"too many coordinates", "-122.43,37.77,-122.39,37.81,1.0"},
		{"not a number", "-122.43,north,-122.39,37.81"},
		{"inverted longitude", "-122.39,37.77,-122.43,37.81"},
		{"inverted latitude", "-122.43,37.81,-122.39,37.77"},
		{"latitude out of range", "-122.43,-95.0,-122.39,37.81"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := traffic.ParseBoundingBox(tt.input)
			assert.Error(t, err)
		})
	}
}
