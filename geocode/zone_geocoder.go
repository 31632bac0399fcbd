package geocode

import (
	"fleet-track/models"
	"fleet-track/repositories/interfaces"
)

// ZoneGeocoder resolves addresses from the account's own geozone table. It is
// always a fast operation since the lookup never leaves the database.
type ZoneGeocoder struct {
	zones interfaces.GeozoneRepositoryInterface
}

// NewZoneGeocoder creates a geozone-backed reverse geocoder.
func NewZoneGeocoder(zones interfaces.GeozoneRepositoryInterface) *ZoneGeocoder {
	return &ZoneGeocoder{
		zones: zones,
	}
}

// IsFastOperation always returns true for zone lookups.
func (g *ZoneGeocoder) IsFastOperation() bool {
	return true
}

// ReverseGeocode returns the address of the first zone enclosing p, or
// (nil, nil) when no zone contains it.
func (g *ZoneGeocoder) ReverseGeocode(accountID string, p models.GeoPoint) (*models.ReverseGeocode, error) {
	zone, err := g.zones.FindEnclosingZone(accountID, p)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, nil
	}
	return zone.ReverseGeocode(), nil
}
