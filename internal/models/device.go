package models

import (
	"time"

	"gorm.io/gorm"
)

// Device is a registered GPS source for a user. Devices are never deleted,
// only deactivated; battery and the active flag are the only mutable fields.
type Device struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	UUID         string         `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Name         string         `gorm:"size:100" json:"name"`
	BatteryLevel *int           `json:"battery_level"` // 0-100, nil when unknown
	IsActive     bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Device) TableName() string {
	return "devices"
}
