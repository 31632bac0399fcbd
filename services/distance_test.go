package services

import (
	"testing"

	"fleet-track/models"
	"fleet-track/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTrack(repo *fakeEventRepo, points ...models.GeoPoint) {
	for i, p := range points {
		repo.events = append(repo.events, models.EventRecord{
			AccountID:  "acme",
			DeviceID:   "truck-1",
			Timestamp:  int64(100 + i),
			StatusCode: models.StatusLocation,
			Latitude:   p.Latitude,
			Longitude:  p.Longitude,
		})
	}
}

func TestAccumulateSumsConsecutiveFixes(t *testing.T) {
	p1 := models.GeoPoint{Latitude: 39.0, Longitude: -77.0}
	p2 := models.GeoPoint{Latitude: 39.1, Longitude: -77.0}
	p3 := models.GeoPoint{Latitude: 39.2, Longitude: -77.1}

	repo := &fakeEventRepo{}
	seedTrack(repo, p1, p2, p3)

	acc := NewDistanceAccumulator(NewRangeQueryEngine(repo, testLogger()), testLogger())

	got, err := acc.Accumulate("acme", "truck-1", -1, -1, nil, 0)
	require.NoError(t, err)

	want := utils.HaversineKM(p1, p2) + utils.HaversineKM(p2, p3)
	assert.InDelta(t, want, got, 1e-9)
}

func TestAccumulateSeedPointAndOdometer(t *testing.T) {
	seed := models.GeoPoint{Latitude: 38.9, Longitude: -77.0}
	p1 := models.GeoPoint{Latitude: 39.0, Longitude: -77.0}
	p2 := models.GeoPoint{Latitude: 39.1, Longitude: -77.0}

	repo := &fakeEventRepo{}
	seedTrack(repo, p1, p2)

	acc := NewDistanceAccumulator(NewRangeQueryEngine(repo, testLogger()), testLogger())

	got, err := acc.Accumulate("acme", "truck-1", -1, -1, &seed, 10.0)
	require.NoError(t, err)

	want := 10.0 + utils.HaversineKM(seed, p1) + utils.HaversineKM(p1, p2)
	assert.InDelta(t, want, got, 1e-9)
}

func TestAccumulateSkipsInvalidFixes(t *testing.T) {
	p1 := models.GeoPoint{Latitude: 39.0, Longitude: -77.0}
	p2 := models.GeoPoint{Latitude: 39.1, Longitude: -77.0}

	repo := &fakeEventRepo{}
	// A lost-fix (0,0) report between two real positions must not inject a
	// leg through the null island.
	seedTrack(repo, p1, models.GeoPoint{}, p2)

	acc := NewDistanceAccumulator(NewRangeQueryEngine(repo, testLogger()), testLogger())

	got, err := acc.Accumulate("acme", "truck-1", -1, -1, nil, 0)
	require.NoError(t, err)
	assert.InDelta(t, utils.HaversineKM(p1, p2), got, 1e-9)
}

func TestAccumulateEmptyWindow(t *testing.T) {
	repo := &fakeEventRepo{}
	acc := NewDistanceAccumulator(NewRangeQueryEngine(repo, testLogger()), testLogger())

	got, err := acc.Accumulate("acme", "truck-1", -1, -1, nil, 5.5)
	require.NoError(t, err)
	assert.Equal(t, 5.5, got, "no events means the seed odometer passes through")
}
