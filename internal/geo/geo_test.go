package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want, tolerance        float64
	}{
		{"same point", 40.7128, -74.0060, 40.7128, -74.0060, 0, 1e-9},
		{"one degree of latitude", 0, 0, 1, 0, 111_195, 5},
		{"new york to london", 40.7128, -74.0060, 51.5074, -0.1278, 5_570_000, 10_000},
		{"across antimeridian", 0, 179.5, 0, -179.5, 111_195, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := Haversine(48.8566, 2.3522, 35.6762, 139.6503)
	b := Haversine(35.6762, 139.6503, 48.8566, 2.3522)
	assert.InDelta(t, a, b, 1e-6)
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want, tolerance        float64
	}{
		{"same point", 40.7128, -74.0060, 40.7128, -74.0060, 0, 1e-9},
		{"one degree along the equator", 0, 0, 0, 1, 111_319.491, 0.001},
		{"one degree of latitude at the equator", 0, 0, 1, 0, 110_574.4, 0.5},
		// Flinders Peak to Buninyong, Vincenty's published example.
		{"flinders peak to buninyong", -37.951033417, 144.424867889, -37.652821139, 143.926495528, 54_972.271, 0.01},
		{"across antimeridian", 0, 179.5, 0, -179.5, 111_319.491, 0.001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestDistanceNearlyAntipodal(t *testing.T) {
	got := Distance(0, 0, 0.5, 179.7)
	assert.False(t, math.IsNaN(got))
	assert.Greater(t, got, 19_000_000.0)
}

func TestWithin(t *testing.T) {
	assert.True(t, Within(0, 0, 0, 0, 0))
	assert.True(t, Within(40.7128, -74.0060, 40.7138, -74.0060, 1000))
	assert.False(t, Within(40.7128, -74.0060, 40.8128, -74.0060, 1000))

	// The sphere puts this point inside 111.25km, the ellipsoid does not.
	assert.Less(t, Haversine(0, 0, 0, 1), 111_250.0)
	assert.False(t, Within(0, 0, 0, 1, 111_250))
	assert.True(t, Within(0, 0, 0, 1, 111_320))
}

func TestValidateCoordinates(t *testing.T) {
	assert.True(t, ValidateCoordinates(90, 180))
	assert.True(t, ValidateCoordinates(-90, -180))
	assert.False(t, ValidateCoordinates(90.0001, 0))
	assert.False(t, ValidateCoordinates(0, -180.5))
	assert.False(t, ValidateCoordinates(math.NaN(), 0))
}
