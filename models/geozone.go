package models

import (
	"time"
)

// Geozone is a named geographic area used for arrival/departure detection and
// address substitution. Containment is a simple center+radius test.
type Geozone struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	AccountID   string `gorm:"index:idx_zone_key,unique;size:64" json:"accountId"`
	GeozoneID   string `gorm:"index:idx_zone_key,unique;size:64" json:"geozoneId"`
	Description string `gorm:"size:128" json:"description"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusM   float64 `json:"radiusM"`

	// ClientIndex is the numeric index assigned for administrative zones so a
	// device-reported arrive/depart can name its zone without a coordinate
	// lookup.
	ClientIndex int64 `gorm:"index" json:"clientIndex"`

	ArrivalZone   bool `json:"arrivalZone"`
	DepartureZone bool `json:"departureZone"`

	StreetAddress string `gorm:"size:128" json:"streetAddress"`
	City          string `gorm:"size:64" json:"city"`
	StateProvince string `gorm:"size:64" json:"stateProvince"`
	PostalCode    string `gorm:"size:16" json:"postalCode"`
	Country       string `gorm:"size:64" json:"country"`
	Subdivision   string `gorm:"size:64" json:"subdivision"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Center returns the zone's center point.
func (z *Geozone) Center() GeoPoint {
	return GeoPoint{Latitude: z.Latitude, Longitude: z.Longitude}
}

// ReverseGeocode builds the address attributes a zone substitutes for a
// generic reverse-geocoder result.
func (z *Geozone) ReverseGeocode() *ReverseGeocode {
	full := z.Description
	if full == "" {
		full = z.GeozoneID
	}
	return &ReverseGeocode{
		FullAddress:   full,
		StreetAddress: z.StreetAddress,
		City:          z.City,
		StateProvince: z.StateProvince,
		PostalCode:    z.PostalCode,
		Country:       z.Country,
		Subdivision:   z.Subdivision,
	}
}

// TransitionType distinguishes a zone arrival from a zone departure.
type TransitionType int

const (
	TransitionArrive TransitionType = iota
	TransitionDepart
)

func (t TransitionType) String() string {
	if t == TransitionDepart {
		return "DEPART"
	}
	return "ARRIVE"
}

// StatusCode returns the event status code a transition maps to.
func (t TransitionType) StatusCode() int {
	if t == TransitionDepart {
		return StatusGeofenceDepart
	}
	return StatusGeofenceArrive
}

// GeozoneTransition is a detected ENTER/DEPART edge between the previously
// cached position's enclosing zone and the new position's zone. Transitions
// are derived and ephemeral; they are never persisted.
type GeozoneTransition struct {
	Type      TransitionType `json:"type"`
	Zone      *Geozone       `json:"zone"`
	Timestamp int64          `json:"timestamp"`
}
