package models

import (
	"time"
)

// Device is a tracked unit belonging to an account. The Last* fields are the
// mutable "last known" cache derived from the event stream; they may lag the
// event log and are never authoritative over it.
type Device struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	AccountID   string `gorm:"index:idx_account_device,unique;size:64" json:"accountId"`
	DeviceID    string `gorm:"index:idx_account_device,unique;size:64" json:"deviceId"`
	Description string `gorm:"size:128" json:"description"`

	AllowNotify    bool   `json:"allowNotify"`
	NotifySelector string `gorm:"size:255" json:"notifySelector"`

	LastValidLatitude    float64 `json:"lastValidLatitude"`
	LastValidLongitude   float64 `json:"lastValidLongitude"`
	LastGPSTime          int64   `json:"lastGPSTime"`
	LastOdometerKM       float64 `json:"lastOdometerKM"`
	LastTotalConnectTime int64   `json:"lastTotalConnectTime"`
	LastNotifyTime       int64   `json:"lastNotifyTime"`
	LastNotifyCode       int     `json:"lastNotifyCode"`

	ExpectAck        bool `json:"expectAck"`
	PendingPingCount int  `json:"pendingPingCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LastValidPoint returns the cached last known GPS fix.
func (d *Device) LastValidPoint() GeoPoint {
	return GeoPoint{Latitude: d.LastValidLatitude, Longitude: d.LastValidLongitude}
}

// SetLastValidLocation updates the cached last known fix. Invalid points are
// ignored so the cache only ever moves to a real position.
func (d *Device) SetLastValidLocation(p GeoPoint, timestamp int64) bool {
	if !p.IsValid() {
		return false
	}
	d.LastValidLatitude = p.Latitude
	d.LastValidLongitude = p.Longitude
	d.LastGPSTime = timestamp
	return true
}

// UpdateOdometer applies a proposed odometer reading to the cache. The cached
// value is monotonically non-decreasing: a proposal below the cached value, or
// at/above the maximum-plausible ceiling, is rejected and the cached value
// retained. Returns true if the proposal was accepted.
func (d *Device) UpdateOdometer(proposedKM, maxKM float64) bool {
	if proposedKM < d.LastOdometerKM {
		return false
	}
	if maxKM > 0 && proposedKM >= maxKM {
		return false
	}
	d.LastOdometerKM = proposedKM
	return true
}
