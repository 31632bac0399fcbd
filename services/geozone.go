package services

import (
	"fleet-track/models"
)

// Synthetic timestamp offsets applied so a DEPART always sorts strictly
// before the ARRIVE emitted for the same instant.
const (
	departTimestampOffset = 1
	arriveTimestampOffset = 2
)

// DetectTransitions determines zero, one or two zone-transition edges between
// the previously cached position's enclosing zone and the new position's
// zone. A cross-zone move emits the DEPART of the old zone before the ARRIVE
// of the new one; each edge is gated on the zone's arrival/departure flag.
func DetectTransitions(prevZone, newZone *models.Geozone, timestamp int64) []models.GeozoneTransition {
	if sameZone(prevZone, newZone) {
		return nil
	}

	var transitions []models.GeozoneTransition
	if prevZone != nil && prevZone.DepartureZone {
		transitions = append(transitions, models.GeozoneTransition{
			Type:      models.TransitionDepart,
			Zone:      prevZone,
			Timestamp: timestamp + departTimestampOffset,
		})
	}
	if newZone != nil && newZone.ArrivalZone {
		transitions = append(transitions, models.GeozoneTransition{
			Type:      models.TransitionArrive,
			Zone:      newZone,
			Timestamp: timestamp + arriveTimestampOffset,
		})
	}
	return transitions
}

func sameZone(a, b *models.Geozone) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.AccountID == b.AccountID && a.GeozoneID == b.GeozoneID
}
