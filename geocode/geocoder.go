package geocode

import (
	"fleet-track/models"
)

// ReverseGeocoder resolves a coordinate to address attributes. Providers
// classify themselves as fast or slow; the ingestion hot path only ever calls
// slow providers off-thread.
type ReverseGeocoder interface {
	// IsFastOperation reports whether ReverseGeocode is safe to call
	// synchronously on the ingestion hot path.
	IsFastOperation() bool

	// ReverseGeocode resolves p to an address for the given account, or
	// (nil, nil) when the provider has nothing for that location.
	ReverseGeocode(accountID string, p models.GeoPoint) (*models.ReverseGeocode, error)
}
