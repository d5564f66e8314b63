package models

import "time"

// SightingReport is filed by a user who spotted a tracked subject. Found=true
// means the reporter confirms the subject is safe/located, which notifies the
// subject's guardians separately from proximity alerting.
type SightingReport struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReporterID uint      `gorm:"not null;index" json:"reporter_id"`
	SubjectID  uint      `gorm:"not null;index" json:"subject_id"`
	Latitude   float64   `gorm:"type:decimal(10,8);not null" json:"latitude"`
	Longitude  float64   `gorm:"type:decimal(11,8);not null" json:"longitude"`
	Found      bool      `gorm:"default:false" json:"found"`
	Note       string    `gorm:"type:text" json:"note"`
	CreatedAt  time.Time `json:"created_at"`

	Reporter User `gorm:"foreignKey:ReporterID" json:"-"`
	Subject  User `gorm:"foreignKey:SubjectID" json:"-"`
}

func (SightingReport) TableName() string {
	return "sighting_reports"
}
