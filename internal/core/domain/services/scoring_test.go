package services_test

import (
	"testing"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinedScore(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		distance float64
		want     float64
	}{
		{name: "at the restaurant", score: 5.0, distance: 0, want: 25.0},
		{name: "four km away", score: 4.0, distance: 4, want: 3.2},
		{name: "unrated agent", score: 0, distance: 1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, services.CombinedScore(tt.score, tt.distance), 1e-9)
		})
	}
}

func TestRate_UnknownPositionFallsBackToRawScore(t *testing.T) {
	restaurant := mustLocation(t, 2.333, 48.865)

	r := services.Rate(restaurant, services.CandidateProfile{AgentID: "livreur1", Score: 4.6})

	assert.InDelta(t, 4.6, r.Combined, 1e-9)
	assert.Nil(t, r.DistanceKm)
}

func TestRate_NearerCandidateOutranksBetterRatedFarOne(t *testing.T) {
	restaurant := mustLocation(t, 2.333, 48.865)
	near := mustLocation(t, 2.333, 48.865)
	far := mustLocation(t, 2.45, 48.9)

	nearby := services.Rate(restaurant, services.CandidateProfile{AgentID: "near", Score: 4.8, Position: &near})
	distant := services.Rate(restaurant, services.CandidateProfile{AgentID: "far", Score: 5.0, Position: &far})

	assert.InDelta(t, 23.04, nearby.Combined, 1e-9)
	require.NotNil(t, nearby.DistanceKm)
	assert.Zero(t, *nearby.DistanceKm)
	assert.Greater(t, nearby.Combined, distant.Combined)
}

func mustLocation(t *testing.T, lon, lat float64) kernel.Location {
	t.Helper()
	loc, err := kernel.NewLocation(lon, lat)
	require.NoError(t, err)
	return loc
}
