package models

import "time"

// ActivityEntry is an append-only audit record. Entries are never updated or
// deleted and are never read back by business logic.
type ActivityEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;index" json:"session_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Action    string    `gorm:"size:40;not null" json:"action"`
	RefID     *uint     `json:"ref_id,omitempty"`
	Detail    string    `gorm:"size:500" json:"detail,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

const (
	ActionJoined             = "joined"
	ActionQuestionCreated    = "question_created"
	ActionQuestionUpdated    = "question_updated"
	ActionQuestionReviewed   = "question_reviewed"
	ActionQuestionsPublished = "questions_published"
	ActionSessionClosed      = "session_closed"
	ActionSessionReopened    = "session_reopened"
)
