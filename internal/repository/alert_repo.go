package repository

import (
	"errors"
	"time"

	"kindred/internal/models"

	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// TryFire atomically claims the right to raise an alert for (reporter, subject).
// It returns true at most once per suppression window regardless of how many
// callers race on the same key. The claim is a conditional UPDATE on the stale
// row; when no row exists, an INSERT races on the unique (reporter, subject)
// index and the duplicate-key loser is suppressed. LastFiredAt never moves
// backwards: the UPDATE only touches rows older than the window cutoff.
func (r *AlertRepository) TryFire(reporterID, subjectID uint, now time.Time, window time.Duration) (bool, error) {
	cutoff := now.Add(-window)
	res := r.db.Model(&models.AlertRecord{}).
		Where("reporter_id = ? AND subject_id = ? AND last_fired_at < ?", reporterID, subjectID, cutoff).
		Update("last_fired_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	// Either a fresh row exists (suppressed) or no row exists yet.
	var count int64
	if err := r.db.Model(&models.AlertRecord{}).
		Where("reporter_id = ? AND subject_id = ?", reporterID, subjectID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	rec := &models.AlertRecord{ReporterID: reporterID, SubjectID: subjectID, LastFiredAt: now}
	if err := r.db.Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race: someone else fired first.
			return false, nil
		}
		return false, err
	}
	return true, nil
}
