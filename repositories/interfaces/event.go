package interfaces

import (
	"fleet-track/models"

	"gorm.io/gorm"
)

// EventRangeCriteria describes one bounded, ordered, filtered scan over the
// event log. TimeStart/TimeEnd of -1 mean unbounded on that side. Descending
// is the physical fetch order; callers that need a different returned order
// reverse in memory.
type EventRangeCriteria struct {
	AccountID   string
	DeviceID    string
	TimeStart   int64
	TimeEnd     int64
	StatusCodes []int
	// ValidGPSOnly excludes events whose stored (lat,lon) is exactly (0,0).
	ValidGPSOnly bool
	Descending   bool
	// Limit <= 0 means no limit.
	Limit int
}

// EventRecordFunc receives one matching record during a streaming scan.
// Returning an error stops the scan.
type EventRecordFunc func(ev *models.EventRecord) error

// EventRepositoryInterface is the sole storage dependency of the range query
// engine and of the persistence step of the ingestion pipeline.
type EventRepositoryInterface interface {
	// Insert persists a new event. tx may be nil, in which case the
	// repository's own connection is used. A duplicate
	// (account,device,timestamp,statusCode) key is rejected by the unique
	// index and surfaced as a DuplicateEntityError.
	Insert(tx *gorm.DB, ev *models.EventRecord) error

	// UpdateAddress updates the address-related columns of the row named by
	// the composite key. The key itself is never touched.
	UpdateAddress(accountID, deviceID string, timestamp int64, statusCode int, rg *models.ReverseGeocode, geozoneID string) error

	// QueryRange returns the matching events in the physical order the
	// criteria ask for. Rows sharing a timestamp come back in store row
	// order; no secondary sort key is imposed.
	QueryRange(c EventRangeCriteria) ([]models.EventRecord, error)

	// StreamRange feeds each matching event to fn without materializing the
	// full result.
	StreamRange(c EventRangeCriteria, fn EventRecordFunc) error

	// CountRange returns the number of events matching the criteria, built
	// from the same filter construction as QueryRange.
	CountRange(c EventRangeCriteria) (int64, error)
}
