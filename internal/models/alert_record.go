package models

import "time"

// AlertRecord is the suppression ledger for proximity alerts, keyed by
// (reporter, subject). One row per key; LastFiredAt only ever moves forward.
type AlertRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ReporterID  uint      `gorm:"not null;uniqueIndex:idx_alert_reporter_subject" json:"reporter_id"`
	SubjectID   uint      `gorm:"not null;uniqueIndex:idx_alert_reporter_subject" json:"subject_id"`
	LastFiredAt time.Time `gorm:"not null" json:"last_fired_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (AlertRecord) TableName() string {
	return "alert_records"
}
