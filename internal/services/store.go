package services

import "github.com/jeskokaiser/altfragen-io-sub002/internal/models"

// Store is the record-store surface the services consume. It is satisfied by
// *store.Client; tests substitute fakes to inject failures.
type Store interface {
	GetSession(sessionID uint) (*models.Session, error)
	CreateSession(session *models.Session) error
	SetSessionActive(sessionID uint, active bool) error
	ListActiveSessions() ([]models.Session, error)

	GetParticipant(sessionID, userID uint) (*models.SessionParticipant, error)
	ListParticipants(sessionID uint) ([]models.SessionParticipant, error)
	CreateParticipant(participant *models.SessionParticipant) error

	CreateDraft(draft *models.DraftQuestion) error
	GetDraft(draftID uint) (*models.DraftQuestion, error)
	SaveDraft(draft *models.DraftQuestion) error
	ListDrafts(sessionID uint) ([]models.DraftQuestion, error)
	ListDraftsByStatus(sessionID uint, status string) ([]models.DraftQuestion, error)
	AdvanceDraftStatus(draftID uint, from, to string) (bool, error)

	InsertQuestions(questions []models.Question) error
	MarkDraftsPublished(draftIDs []uint) error

	AppendActivity(entry *models.ActivityEntry) error
	ListActivity(sessionID uint, limit int) ([]models.ActivityEntry, error)

	GetQuestion(questionID uint) (*models.Question, error)
	ListQuestions(userID uint, subject, university string) ([]models.Question, error)
}
