package models

import "time"

type DraftQuestion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SessionID     uint      `gorm:"not null;index" json:"session_id"`
	CreatorID     uint      `gorm:"not null" json:"creator_id"`
	Text          string    `gorm:"type:text;not null" json:"question"`
	OptionA       string    `gorm:"size:1000;not null" json:"option_a"`
	OptionB       string    `gorm:"size:1000;not null" json:"option_b"`
	OptionC       string    `gorm:"size:1000;not null" json:"option_c"`
	OptionD       string    `gorm:"size:1000;not null" json:"option_d"`
	OptionE       string    `gorm:"size:1000;not null" json:"option_e"`
	CorrectAnswer string    `gorm:"size:1;not null" json:"correct_answer"`
	Comment       string    `gorm:"type:text" json:"comment,omitempty"`
	Difficulty    int       `gorm:"not null;default:3" json:"difficulty"`
	Status        string    `gorm:"size:20;not null;default:'draft';index" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const (
	DraftStatusDraft     = "draft"
	DraftStatusReviewed  = "reviewed"
	DraftStatusPublished = "published"
)

// AnswerLetters is the set of valid correct-answer letters.
var AnswerLetters = []string{"A", "B", "C", "D", "E"}

func ValidAnswerLetter(letter string) bool {
	for _, l := range AnswerLetters {
		if letter == l {
			return true
		}
	}
	return false
}
