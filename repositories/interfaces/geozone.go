package interfaces

import (
	"fleet-track/models"
)

// GeozoneRepositoryInterface resolves coordinates and client indexes to
// zones. When multiple zones overlap a point the first match wins; overlap
// priority is implementation-defined.
type GeozoneRepositoryInterface interface {
	Create(zone *models.Geozone) error
	ListByAccount(accountID string) ([]models.Geozone, error)

	// FindEnclosingZone returns the first zone containing p, or nil when no
	// zone encloses it.
	FindEnclosingZone(accountID string, p models.GeoPoint) (*models.Geozone, error)

	// FindByClientIndex returns the zone carrying the device-assigned numeric
	// index, or nil when none matches.
	FindByClientIndex(accountID string, clientIndex int64) (*models.Geozone, error)
}
