package repository

import (
	"kindred/internal/models"

	"gorm.io/gorm"
)

type SightingRepository struct {
	db *gorm.DB
}

func NewSightingRepository(db *gorm.DB) *SightingRepository {
	return &SightingRepository{db: db}
}

func (r *SightingRepository) Create(s *models.SightingReport) error {
	return r.db.Create(s).Error
}

func (r *SightingRepository) ListForSubject(subjectID uint, limit int) ([]models.SightingReport, error) {
	var list []models.SightingReport
	err := r.db.Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
