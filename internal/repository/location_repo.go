package repository

import (
	"time"

	"kindred/internal/models"

	"gorm.io/gorm"
)

type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// RecordSample persists a sample and the device battery update as one unit.
// The caller must not observe a sample without its battery update or vice versa.
func (r *LocationRepository) RecordSample(device *models.Device, lat, lng float64, battery *int, capturedAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		sample := &models.LocationSample{
			DeviceID:   device.ID,
			Latitude:   lat,
			Longitude:  lng,
			CapturedAt: capturedAt,
		}
		if err := tx.Create(sample).Error; err != nil {
			return err
		}
		if battery != nil {
			if err := tx.Model(&models.Device{}).
				Where("id = ?", device.ID).
				Update("battery_level", *battery).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LatestForUser returns the newest sample across the user's active devices,
// with the owning device preloaded (battery lives on the device). Returns
// (nil, nil) when the user has no samples yet.
func (r *LocationRepository) LatestForUser(userID uint) (*models.LocationSample, error) {
	var sample models.LocationSample
	err := r.db.
		Joins("JOIN devices ON devices.id = location_samples.device_id").
		Where("devices.user_id = ? AND devices.is_active = ?", userID, true).
		Order("location_samples.captured_at DESC").
		Preload("Device").
		First(&sample).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sample, nil
}
