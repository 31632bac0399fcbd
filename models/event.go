package models

import (
	"time"
)

// GeoPoint is a WGS84 coordinate pair. (0,0) is the "no fix" sentinel and is
// never treated as a real position.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsValid reports whether the point is a usable GPS fix. Latitude and
// longitude being simultaneously zero is the sole invalidity predicate.
func (p GeoPoint) IsValid() bool {
	return p.Latitude != 0 || p.Longitude != 0
}

// EventRecord is one timestamped telemetry report from a tracked device.
// The (AccountID, DeviceID, Timestamp, StatusCode) tuple is immutable once
// persisted; later enrichment may only touch the address columns.
type EventRecord struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	AccountID  string `gorm:"index:idx_event_key,unique;size:64" json:"accountId"`
	DeviceID   string `gorm:"index:idx_event_key,unique;size:64" json:"deviceId"`
	Timestamp  int64  `gorm:"index:idx_event_key,unique" json:"timestamp"`
	StatusCode int    `gorm:"index:idx_event_key,unique" json:"statusCode"`

	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	GPSAgeSec  int64   `json:"gpsAge"`
	SpeedKPH   float64 `json:"speedKPH"`
	Heading    float64 `json:"heading"`
	AltitudeM  float64 `json:"altitudeM"`
	OdometerKM float64 `json:"odometerKM"`
	DistanceKM float64 `json:"distanceKM"`

	GeozoneID    string `gorm:"size:64" json:"geozoneId"`
	GeozoneIndex int64  `json:"geozoneIndex"`

	FullAddress   string `gorm:"size:255" json:"fullAddress"`
	StreetAddress string `gorm:"size:128" json:"streetAddress"`
	City          string `gorm:"size:64" json:"city"`
	StateProvince string `gorm:"size:64" json:"stateProvince"`
	PostalCode    string `gorm:"size:16" json:"postalCode"`
	Country       string `gorm:"size:64" json:"country"`
	Subdivision   string `gorm:"size:64" json:"subdivision"`

	InputMask int64  `json:"inputMask"`
	EntityID  string `gorm:"size:64" json:"entityId"`
	DriverID  string `gorm:"size:64" json:"driverId"`
	RawData   string `json:"rawData"`

	// CreatedAt is the server receipt time, distinct from the
	// device-reported Timestamp.
	CreatedAt time.Time `json:"createdAt"`
}

// GeoPoint returns the event's coordinate pair.
func (e *EventRecord) GeoPoint() GeoPoint {
	return GeoPoint{Latitude: e.Latitude, Longitude: e.Longitude}
}

// HasValidFix reports whether the event carries a usable GPS fix.
func (e *EventRecord) HasValidFix() bool {
	return e.GeoPoint().IsValid()
}

// HasAddress reports whether any address enrichment has been applied. A blank
// address means both "not yet attempted" and "enrichment failed".
func (e *EventRecord) HasAddress() bool {
	return e.FullAddress != ""
}

// ReverseGeocode holds the address attributes resolved for a coordinate.
type ReverseGeocode struct {
	FullAddress   string  `json:"fullAddress"`
	StreetAddress string  `json:"streetAddress"`
	City          string  `json:"city"`
	StateProvince string  `json:"stateProvince"`
	PostalCode    string  `json:"postalCode"`
	Country       string  `json:"country"`
	Subdivision   string  `json:"subdivision"`
	SpeedLimitKPH float64 `json:"speedLimitKPH,omitempty"`
	IsTollRoad    bool    `json:"isTollRoad,omitempty"`
}

// ApplyAddress copies resolved address attributes onto the event. Key columns
// are never touched.
func (e *EventRecord) ApplyAddress(rg *ReverseGeocode) {
	if rg == nil {
		return
	}
	e.FullAddress = rg.FullAddress
	e.StreetAddress = rg.StreetAddress
	e.City = rg.City
	e.StateProvince = rg.StateProvince
	e.PostalCode = rg.PostalCode
	e.Country = rg.Country
	e.Subdivision = rg.Subdivision
}
