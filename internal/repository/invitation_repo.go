package repository

import (
	"time"

	"kindred/internal/domain"
	"kindred/internal/models"

	"gorm.io/gorm"
)

type InvitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Create(inv *models.Invitation) error {
	return r.db.Create(inv).Error
}

func (r *InvitationRepository) GetByID(id uint) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.Preload("Inviter").First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvitationRepository) ListForEmail(email string) ([]models.Invitation, error) {
	var list []models.Invitation
	err := r.db.Where("invitee_email = ? AND status = ?", email, domain.InvitationStatusPending).
		Preload("Inviter").
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// Accept marks the invitation accepted and creates both relationship edges in
// one transaction: inviter sees invitee and invitee sees inviter.
func (r *InvitationRepository) Accept(inv *models.Invitation, inviteeID uint, label string) error {
	now := time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", inv.ID, domain.InvitationStatusPending).
			Updates(map[string]interface{}{"status": domain.InvitationStatusAccepted, "responded_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound // already responded
		}
		edges := []models.Relationship{
			{ViewerID: inv.InviterID, SubjectID: inviteeID, Label: inv.Label},
			{ViewerID: inviteeID, SubjectID: inv.InviterID, Label: label},
		}
		return tx.Create(&edges).Error
	})
}

func (r *InvitationRepository) Reject(invID uint) error {
	now := time.Now()
	res := r.db.Model(&models.Invitation{}).
		Where("id = ? AND status = ?", invID, domain.InvitationStatusPending).
		Updates(map[string]interface{}{"status": domain.InvitationStatusRejected, "responded_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
