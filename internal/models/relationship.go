package models

import "time"

// Relationship is a directed edge: the viewer may see the subject's live
// location. Bidirectional visibility is two edges created together when an
// invitation is accepted. Edges are created and removed, never mutated.
type Relationship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ViewerID  uint      `gorm:"not null;uniqueIndex:idx_rel_viewer_subject" json:"viewer_id"`
	SubjectID uint      `gorm:"not null;uniqueIndex:idx_rel_viewer_subject;index" json:"subject_id"`
	Label     string    `gorm:"size:50" json:"label"`
	CreatedAt time.Time `json:"created_at"`

	Viewer  User `gorm:"foreignKey:ViewerID" json:"-"`
	Subject User `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
}

func (Relationship) TableName() string {
	return "relationships"
}
