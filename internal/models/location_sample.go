package models

import "time"

// LocationSample is an immutable GPS fix. The "current" position of a user is
// the newest sample across that user's active devices.
type LocationSample struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DeviceID   uint      `gorm:"not null;index:idx_samples_device_captured" json:"device_id"`
	Latitude   float64   `gorm:"type:decimal(10,8);not null" json:"latitude"`
	Longitude  float64   `gorm:"type:decimal(11,8);not null" json:"longitude"`
	CapturedAt time.Time `gorm:"not null;index:idx_samples_device_captured" json:"captured_at"`
	CreatedAt  time.Time `json:"created_at"`

	Device Device `gorm:"foreignKey:DeviceID" json:"-"`
}

func (LocationSample) TableName() string {
	return "location_samples"
}
