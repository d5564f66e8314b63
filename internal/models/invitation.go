package models

import (
	"time"

	"gorm.io/gorm"
)

type Invitation struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	InviterID    uint           `gorm:"not null;index" json:"inviter_id"`
	InviteeEmail string         `gorm:"size:255;not null;index" json:"invitee_email"`
	Label        string         `gorm:"size:50" json:"label"`
	Status       string         `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	RespondedAt  *time.Time     `json:"responded_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Inviter User `gorm:"foreignKey:InviterID" json:"inviter,omitempty"`
}

func (Invitation) TableName() string {
	return "invitations"
}
