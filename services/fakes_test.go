package services

import (
	"fmt"
	"sort"

	"fleet-track/models"
	"fleet-track/repositories/base"
	"fleet-track/repositories/interfaces"
	"fleet-track/utils"

	"gorm.io/gorm"
)

// fakeEventRepo is an in-memory EventRepositoryInterface honoring the same
// filter semantics as the real repository.
type fakeEventRepo struct {
	events    []models.EventRecord
	insertErr error
	updates   []addressUpdate
}

type addressUpdate struct {
	accountID  string
	deviceID   string
	timestamp  int64
	statusCode int
	rg         *models.ReverseGeocode
	geozoneID  string
}

func (f *fakeEventRepo) Insert(tx *gorm.DB, ev *models.EventRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, existing := range f.events {
		if existing.AccountID == ev.AccountID && existing.DeviceID == ev.DeviceID &&
			existing.Timestamp == ev.Timestamp && existing.StatusCode == ev.StatusCode {
			key := fmt.Sprintf("%s/%s/%d/0x%04X", ev.AccountID, ev.DeviceID, ev.Timestamp, ev.StatusCode)
			return &base.DuplicateEntityError{Table: "event_records", Key: key}
		}
	}
	ev.ID = uint(len(f.events) + 1)
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeEventRepo) UpdateAddress(accountID, deviceID string, timestamp int64, statusCode int, rg *models.ReverseGeocode, geozoneID string) error {
	f.updates = append(f.updates, addressUpdate{accountID, deviceID, timestamp, statusCode, rg, geozoneID})
	for i := range f.events {
		ev := &f.events[i]
		if ev.AccountID == accountID && ev.DeviceID == deviceID &&
			ev.Timestamp == timestamp && ev.StatusCode == statusCode {
			ev.ApplyAddress(rg)
			if geozoneID != "" {
				ev.GeozoneID = geozoneID
			}
			return nil
		}
	}
	key := fmt.Sprintf("%s/%s/%d/0x%04X", accountID, deviceID, timestamp, statusCode)
	return &base.EntityNotFoundError{Table: "event_records", Identifier: key}
}

func (f *fakeEventRepo) matches(c interfaces.EventRangeCriteria, ev *models.EventRecord) bool {
	if ev.AccountID != c.AccountID || ev.DeviceID != c.DeviceID {
		return false
	}
	if c.TimeStart >= 0 && ev.Timestamp < c.TimeStart {
		return false
	}
	if c.TimeEnd >= 0 && ev.Timestamp > c.TimeEnd {
		return false
	}
	if len(c.StatusCodes) > 0 {
		found := false
		for _, code := range c.StatusCodes {
			if ev.StatusCode == code {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.ValidGPSOnly && !ev.HasValidFix() {
		return false
	}
	return true
}

func (f *fakeEventRepo) QueryRange(c interfaces.EventRangeCriteria) ([]models.EventRecord, error) {
	var result []models.EventRecord
	for _, ev := range f.events {
		if f.matches(c, &ev) {
			result = append(result, ev)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if c.Descending {
			return result[i].Timestamp > result[j].Timestamp
		}
		return result[i].Timestamp < result[j].Timestamp
	})
	if c.Limit > 0 && len(result) > c.Limit {
		result = result[:c.Limit]
	}
	return result, nil
}

func (f *fakeEventRepo) StreamRange(c interfaces.EventRangeCriteria, fn interfaces.EventRecordFunc) error {
	events, err := f.QueryRange(c)
	if err != nil {
		return err
	}
	for i := range events {
		if err := fn(&events[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeEventRepo) CountRange(c interfaces.EventRangeCriteria) (int64, error) {
	var count int64
	for _, ev := range f.events {
		if f.matches(c, &ev) {
			count++
		}
	}
	return count, nil
}

// fakeZoneRepo serves zones from a slice, first match wins.
type fakeZoneRepo struct {
	zones []models.Geozone
}

func (f *fakeZoneRepo) Create(zone *models.Geozone) error {
	f.zones = append(f.zones, *zone)
	return nil
}

func (f *fakeZoneRepo) ListByAccount(accountID string) ([]models.Geozone, error) {
	var zones []models.Geozone
	for _, z := range f.zones {
		if z.AccountID == accountID {
			zones = append(zones, z)
		}
	}
	return zones, nil
}

func (f *fakeZoneRepo) FindEnclosingZone(accountID string, p models.GeoPoint) (*models.Geozone, error) {
	if !p.IsValid() {
		return nil, nil
	}
	for i := range f.zones {
		z := f.zones[i]
		if z.AccountID != accountID || z.RadiusM <= 0 {
			continue
		}
		if utils.HaversineMeters(z.Center(), p) <= z.RadiusM {
			return &z, nil
		}
	}
	return nil, nil
}

func (f *fakeZoneRepo) FindByClientIndex(accountID string, clientIndex int64) (*models.Geozone, error) {
	if clientIndex <= 0 {
		return nil, nil
	}
	for i := range f.zones {
		z := f.zones[i]
		if z.AccountID == accountID && z.ClientIndex == clientIndex {
			return &z, nil
		}
	}
	return nil, nil
}

// fakeGeocoder records calls and plays back a scripted response.
type fakeGeocoder struct {
	fast    bool
	result  *models.ReverseGeocode
	err     error
	calls   int
	lastAcc string
}

func (f *fakeGeocoder) IsFastOperation() bool {
	return f.fast
}

func (f *fakeGeocoder) ReverseGeocode(accountID string, p models.GeoPoint) (*models.ReverseGeocode, error) {
	f.calls++
	f.lastAcc = accountID
	return f.result, f.err
}

// fakeQueue records submitted jobs.
type fakeQueue struct {
	jobs []AddressEnrichmentJob
}

func (f *fakeQueue) Submit(job AddressEnrichmentJob) {
	f.jobs = append(f.jobs, job)
}
