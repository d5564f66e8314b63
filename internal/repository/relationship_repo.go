package repository

import (
	"kindred/internal/models"

	"gorm.io/gorm"
)

type RelationshipRepository struct {
	db *gorm.DB
}

func NewRelationshipRepository(db *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// ViewersOf returns the IDs of users permitted to see the subject's location.
func (r *RelationshipRepository) ViewersOf(subjectID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Relationship{}).
		Where("subject_id = ?", subjectID).
		Pluck("viewer_id", &ids).Error
	return ids, err
}

// AreRelated reports whether any edge exists between the two users, in either
// direction. Related users share location live; only unrelated reporters are
// eligible for proximity alerting.
func (r *RelationshipRepository) AreRelated(a, b uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.Relationship{}).
		Where("(viewer_id = ? AND subject_id = ?) OR (viewer_id = ? AND subject_id = ?)", a, b, b, a).
		Count(&c).Error
	return c > 0, err
}

// CircleOf lists the viewer's outgoing edges with the subject users preloaded.
func (r *RelationshipRepository) CircleOf(viewerID uint) ([]models.Relationship, error) {
	var list []models.Relationship
	err := r.db.Where("viewer_id = ?", viewerID).
		Preload("Subject").
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// RemovePair deletes both directions of an edge in one transaction.
func (r *RelationshipRepository) RemovePair(a, b uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Where("(viewer_id = ? AND subject_id = ?) OR (viewer_id = ? AND subject_id = ?)", a, b, b, a).
			Delete(&models.Relationship{}).Error
	})
}
