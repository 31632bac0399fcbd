package repositories

import (
	"fmt"

	"fleet-track/models"
	"fleet-track/repositories/base"
	"fleet-track/repositories/interfaces"

	"gorm.io/gorm"
)

// EventRepository implements EventRepositoryInterface on top of gorm.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new instance of EventRepository.
func NewEventRepository(db *gorm.DB) interfaces.EventRepositoryInterface {
	return &EventRepository{
		db: db,
	}
}

// Insert persists a new event record. The composite unique index on
// (account_id, device_id, timestamp, status_code) rejects duplicates.
func (er *EventRepository) Insert(tx *gorm.DB, ev *models.EventRecord) error {
	conn := tx
	if conn == nil {
		conn = er.db
	}
	if err := conn.Create(ev).Error; err != nil {
		key := fmt.Sprintf("%s/%s/%d/0x%04X", ev.AccountID, ev.DeviceID, ev.Timestamp, ev.StatusCode)
		return base.HandleDBError("insert", "event_records", key, err)
	}
	return nil
}

// UpdateAddress updates the address-related columns of a persisted event.
// The composite key columns are never part of the update set.
func (er *EventRepository) UpdateAddress(accountID, deviceID string, timestamp int64, statusCode int, rg *models.ReverseGeocode, geozoneID string) error {
	if rg == nil {
		return nil
	}
	updates := map[string]interface{}{
		"full_address":   rg.FullAddress,
		"street_address": rg.StreetAddress,
		"city":           rg.City,
		"state_province": rg.StateProvince,
		"postal_code":    rg.PostalCode,
		"country":        rg.Country,
		"subdivision":    rg.Subdivision,
	}
	if geozoneID != "" {
		updates["geozone_id"] = geozoneID
	}

	result := er.db.Model(&models.EventRecord{}).
		Where("account_id = ? AND device_id = ? AND timestamp = ? AND status_code = ?",
			accountID, deviceID, timestamp, statusCode).
		Updates(updates)
	if result.Error != nil {
		return base.WrapDBError("update", "event_records", result.Error)
	}
	if result.RowsAffected == 0 {
		key := fmt.Sprintf("%s/%s/%d/0x%04X", accountID, deviceID, timestamp, statusCode)
		return &base.EntityNotFoundError{Table: "event_records", Identifier: key}
	}
	return nil
}

// buildRangeQuery is the single WHERE construction shared by QueryRange,
// StreamRange and CountRange so count and fetch never diverge.
func (er *EventRepository) buildRangeQuery(c interfaces.EventRangeCriteria) *gorm.DB {
	q := er.db.Model(&models.EventRecord{}).
		Where("account_id = ? AND device_id = ?", c.AccountID, c.DeviceID)

	if c.TimeStart >= 0 {
		q = q.Where("timestamp >= ?", c.TimeStart)
	}
	if c.TimeEnd >= 0 {
		q = q.Where("timestamp <= ?", c.TimeEnd)
	}
	if len(c.StatusCodes) > 0 {
		q = q.Where("status_code IN ?", c.StatusCodes)
	}
	if c.ValidGPSOnly {
		q = q.Where("NOT (latitude = 0 AND longitude = 0)")
	}
	return q
}

// orderRangeQuery applies the physical fetch order and limit. The sort key is
// the event timestamp only; rows sharing a timestamp keep store row order.
func orderRangeQuery(q *gorm.DB, c interfaces.EventRangeCriteria) *gorm.DB {
	if c.Descending {
		q = q.Order("timestamp DESC")
	} else {
		q = q.Order("timestamp ASC")
	}
	if c.Limit > 0 {
		q = q.Limit(c.Limit)
	}
	return q
}

// QueryRange returns the matching events in the requested physical order.
func (er *EventRepository) QueryRange(c interfaces.EventRangeCriteria) ([]models.EventRecord, error) {
	var events []models.EventRecord
	q := orderRangeQuery(er.buildRangeQuery(c), c)
	if err := q.Find(&events).Error; err != nil {
		return nil, base.WrapDBError("query", "event_records", err)
	}
	return events, nil
}

// StreamRange feeds each matching event to fn one row at a time.
func (er *EventRepository) StreamRange(c interfaces.EventRangeCriteria, fn interfaces.EventRecordFunc) error {
	q := orderRangeQuery(er.buildRangeQuery(c), c)
	rows, err := q.Rows()
	if err != nil {
		return base.WrapDBError("stream", "event_records", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ev models.EventRecord
		if err := er.db.ScanRows(rows, &ev); err != nil {
			return base.WrapDBError("stream", "event_records", err)
		}
		if err := fn(&ev); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CountRange counts matching events using the same filter construction as
// QueryRange.
func (er *EventRepository) CountRange(c interfaces.EventRangeCriteria) (int64, error) {
	var count int64
	if err := er.buildRangeQuery(c).Count(&count).Error; err != nil {
		return 0, base.WrapDBError("count", "event_records", err)
	}
	return count, nil
}
