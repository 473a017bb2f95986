package models

import "time"

// Question is a permanent question-bank record. Publishing a session copies
// reviewed drafts here; the copies are decoupled from the session afterwards.
type Question struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatorID     uint      `gorm:"not null;index" json:"creator_id"`
	Text          string    `gorm:"type:text;not null" json:"question"`
	OptionA       string    `gorm:"size:1000;not null" json:"option_a"`
	OptionB       string    `gorm:"size:1000;not null" json:"option_b"`
	OptionC       string    `gorm:"size:1000;not null" json:"option_c"`
	OptionD       string    `gorm:"size:1000;not null" json:"option_d"`
	OptionE       string    `gorm:"size:1000;not null" json:"option_e"`
	CorrectAnswer string    `gorm:"size:1;not null" json:"correct_answer"`
	Comment       string    `gorm:"type:text" json:"comment,omitempty"`
	Subject       string    `gorm:"size:255;index" json:"subject"`
	Difficulty    int       `gorm:"not null;default:3" json:"difficulty"`
	University    string    `gorm:"size:255;index" json:"university,omitempty"`
	Visibility    string    `gorm:"size:20;not null;default:'private'" json:"visibility"`
	Filename      string    `gorm:"size:255" json:"filename"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	VisibilityPrivate    = "private"
	VisibilityUniversity = "university"
)
