package models

import "time"

type Session struct {
	ID           uint                 `gorm:"primaryKey" json:"id"`
	Title        string               `gorm:"size:255;not null" json:"title"`
	Description  string               `gorm:"type:text" json:"description,omitempty"`
	Subject      string               `gorm:"size:255;not null" json:"subject"`
	Semester     string               `gorm:"size:50" json:"semester,omitempty"`
	Year         int                  `gorm:"default:0" json:"year,omitempty"`
	CreatorID    uint                 `gorm:"not null;index" json:"creator_id"`
	Creator      User                 `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	University   string               `gorm:"size:255" json:"university,omitempty"`
	Active       bool                 `gorm:"not null;default:true" json:"active"`
	Participants []SessionParticipant `gorm:"foreignKey:SessionID" json:"participants,omitempty"`
	Questions    []DraftQuestion      `gorm:"foreignKey:SessionID" json:"questions,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}
