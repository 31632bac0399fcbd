package repositories

import (
	"errors"

	"fleet-track/models"
	"fleet-track/repositories/base"
	"fleet-track/repositories/interfaces"
	"fleet-track/utils"

	"gorm.io/gorm"
)

// GeozoneRepository implements GeozoneRepositoryInterface with a
// center+radius containment test.
type GeozoneRepository struct {
	db *gorm.DB
}

// NewGeozoneRepository creates a new instance of GeozoneRepository.
func NewGeozoneRepository(db *gorm.DB) interfaces.GeozoneRepositoryInterface {
	return &GeozoneRepository{
		db: db,
	}
}

// Create registers a new geozone.
func (gr *GeozoneRepository) Create(zone *models.Geozone) error {
	if err := gr.db.Create(zone).Error; err != nil {
		return base.HandleDBError("create", "geozones", zone.GeozoneID, err)
	}
	return nil
}

// ListByAccount retrieves all zones belonging to an account.
func (gr *GeozoneRepository) ListByAccount(accountID string) ([]models.Geozone, error) {
	var zones []models.Geozone
	err := gr.db.Where("account_id = ?", accountID).Order("geozone_id asc").Find(&zones).Error
	if err != nil {
		return nil, base.WrapDBError("list", "geozones", err)
	}
	return zones, nil
}

// FindEnclosingZone returns the first zone whose radius contains p. A coarse
// bounding-box prefilter keeps the candidate set small; the exact test is
// great-circle distance against the radius. First match wins; overlap
// priority between zones is implementation-defined.
func (gr *GeozoneRepository) FindEnclosingZone(accountID string, p models.GeoPoint) (*models.Geozone, error) {
	if !p.IsValid() {
		return nil, nil
	}

	// 1 degree latitude is ~111km; the box is oversized on purpose so the
	// exact distance test below is the only filter that matters.
	const degPerKM = 1.0 / 111.0
	var candidates []models.Geozone
	err := gr.db.
		Where("account_id = ?", accountID).
		Where("latitude BETWEEN ? AND ?",
			p.Latitude-degPerKM*maxZoneRadiusKM, p.Latitude+degPerKM*maxZoneRadiusKM).
		Order("geozone_id asc").
		Find(&candidates).Error
	if err != nil {
		return nil, base.WrapDBError("query", "geozones", err)
	}

	for i := range candidates {
		z := &candidates[i]
		if z.RadiusM <= 0 {
			continue
		}
		if utils.HaversineMeters(z.Center(), p) <= z.RadiusM {
			return z, nil
		}
	}
	return nil, nil
}

// maxZoneRadiusKM bounds the latitude prefilter window.
const maxZoneRadiusKM = 50.0

// FindByClientIndex returns the zone carrying the device-assigned numeric
// index, or nil when none matches.
func (gr *GeozoneRepository) FindByClientIndex(accountID string, clientIndex int64) (*models.Geozone, error) {
	if clientIndex <= 0 {
		return nil, nil
	}
	var zone models.Geozone
	err := gr.db.Where("account_id = ? AND client_index = ?", accountID, clientIndex).First(&zone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, base.WrapDBError("query", "geozones", err)
	}
	return &zone, nil
}
