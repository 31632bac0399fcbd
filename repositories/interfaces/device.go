package interfaces

import (
	"fleet-track/models"
)

// DeviceRepositoryInterface manages tracked devices and their cached
// last-known state.
type DeviceRepositoryInterface interface {
	Create(device *models.Device) error
	GetByKey(accountID, deviceID string) (*models.Device, error)
	ListByAccount(accountID string) ([]models.Device, error)

	// SaveState persists the mutable last-known columns of an already loaded
	// device. Ingestion mutates the device in memory only; callers batch the
	// eventual save through this method.
	SaveState(device *models.Device) error
}
