package repository

import (
	"kindred/internal/models"

	"gorm.io/gorm"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Create(d *models.Device) error {
	return r.db.Create(d).Error
}

func (r *DeviceRepository) GetByUUID(uuid string) (*models.Device, error) {
	var d models.Device
	if err := r.db.Where("uuid = ?", uuid).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DeviceRepository) ListByUser(userID uint) ([]models.Device, error) {
	var list []models.Device
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&list).Error
	return list, err
}

// Deactivate flips the active flag; devices are never deleted.
func (r *DeviceRepository) Deactivate(id, userID uint) error {
	res := r.db.Model(&models.Device{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
