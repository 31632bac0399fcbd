package services

import (
	"testing"

	"fleet-track/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zone(id string, arrival, departure bool) *models.Geozone {
	return &models.Geozone{
		AccountID:     "acme",
		GeozoneID:     id,
		ArrivalZone:   arrival,
		DepartureZone: departure,
	}
}

func TestDetectTransitions(t *testing.T) {
	const ts = int64(5000)

	t.Run("outside to outside", func(t *testing.T) {
		assert.Empty(t, DetectTransitions(nil, nil, ts))
	})

	t.Run("outside to inside", func(t *testing.T) {
		got := DetectTransitions(nil, zone("a", true, true), ts)
		require.Len(t, got, 1)
		assert.Equal(t, models.TransitionArrive, got[0].Type)
		assert.Equal(t, "a", got[0].Zone.GeozoneID)
	})

	t.Run("inside to outside", func(t *testing.T) {
		got := DetectTransitions(zone("a", true, true), nil, ts)
		require.Len(t, got, 1)
		assert.Equal(t, models.TransitionDepart, got[0].Type)
		assert.Equal(t, "a", got[0].Zone.GeozoneID)
	})

	t.Run("same zone is quiet", func(t *testing.T) {
		assert.Empty(t, DetectTransitions(zone("a", true, true), zone("a", true, true), ts))
	})

	t.Run("cross zone emits depart then arrive", func(t *testing.T) {
		got := DetectTransitions(zone("a", true, true), zone("b", true, true), ts)
		require.Len(t, got, 2)
		assert.Equal(t, models.TransitionDepart, got[0].Type)
		assert.Equal(t, "a", got[0].Zone.GeozoneID)
		assert.Equal(t, models.TransitionArrive, got[1].Type)
		assert.Equal(t, "b", got[1].Zone.GeozoneID)
	})

	t.Run("depart timestamp precedes arrive", func(t *testing.T) {
		got := DetectTransitions(zone("a", true, true), zone("b", true, true), ts)
		require.Len(t, got, 2)
		assert.Greater(t, got[0].Timestamp, ts, "synthetic offsets keep transitions after the event")
		assert.Less(t, got[0].Timestamp, got[1].Timestamp)
	})
}

func TestDetectTransitionsZoneFlags(t *testing.T) {
	t.Run("arrival not flagged", func(t *testing.T) {
		got := DetectTransitions(nil, zone("a", false, true), 100)
		assert.Empty(t, got)
	})

	t.Run("departure not flagged", func(t *testing.T) {
		got := DetectTransitions(zone("a", true, false), nil, 100)
		assert.Empty(t, got)
	})

	t.Run("cross zone with one flag each", func(t *testing.T) {
		got := DetectTransitions(zone("a", true, false), zone("b", true, false), 100)
		require.Len(t, got, 1)
		assert.Equal(t, models.TransitionArrive, got[0].Type)
		assert.Equal(t, "b", got[0].Zone.GeozoneID)
	})
}

func TestTransitionTypeMapping(t *testing.T) {
	assert.Equal(t, "ARRIVE", models.TransitionArrive.String())
	assert.Equal(t, "DEPART", models.TransitionDepart.String())
	assert.Equal(t, models.StatusGeofenceArrive, models.TransitionArrive.StatusCode())
	assert.Equal(t, models.StatusGeofenceDepart, models.TransitionDepart.StatusCode())
}
