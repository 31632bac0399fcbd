package repositories

import (
	"fmt"

	"fleet-track/models"
	"fleet-track/repositories/base"
	"fleet-track/repositories/interfaces"

	"gorm.io/gorm"
)

// DeviceRepository implements DeviceRepositoryInterface.
type DeviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new instance of DeviceRepository.
func NewDeviceRepository(db *gorm.DB) interfaces.DeviceRepositoryInterface {
	return &DeviceRepository{
		db: db,
	}
}

// Create registers a new device.
func (dr *DeviceRepository) Create(device *models.Device) error {
	if err := dr.db.Create(device).Error; err != nil {
		key := fmt.Sprintf("%s/%s", device.AccountID, device.DeviceID)
		return base.HandleDBError("create", "devices", key, err)
	}
	return nil
}

// GetByKey retrieves a device by account/device identity.
func (dr *DeviceRepository) GetByKey(accountID, deviceID string) (*models.Device, error) {
	var device models.Device
	err := dr.db.Where("account_id = ? AND device_id = ?", accountID, deviceID).First(&device).Error
	if err != nil {
		key := fmt.Sprintf("%s/%s", accountID, deviceID)
		return nil, base.HandleDBError("get", "devices", key, err)
	}
	return &device, nil
}

// ListByAccount retrieves all devices belonging to an account.
func (dr *DeviceRepository) ListByAccount(accountID string) ([]models.Device, error) {
	var devices []models.Device
	err := dr.db.Where("account_id = ?", accountID).Order("device_id asc").Find(&devices).Error
	if err != nil {
		return nil, base.WrapDBError("list", "devices", err)
	}
	return devices, nil
}

// SaveState persists the mutable last-known columns of a loaded device.
func (dr *DeviceRepository) SaveState(device *models.Device) error {
	updates := map[string]interface{}{
		"last_valid_latitude":     device.LastValidLatitude,
		"last_valid_longitude":    device.LastValidLongitude,
		"last_gps_time":           device.LastGPSTime,
		"last_odometer_km":        device.LastOdometerKM,
		"last_total_connect_time": device.LastTotalConnectTime,
		"last_notify_time":        device.LastNotifyTime,
		"last_notify_code":        device.LastNotifyCode,
		"pending_ping_count":      device.PendingPingCount,
	}
	err := dr.db.Model(&models.Device{}).
		Where("account_id = ? AND device_id = ?", device.AccountID, device.DeviceID).
		Updates(updates).Error
	if err != nil {
		return base.WrapDBError("update", "devices", err)
	}
	return nil
}
