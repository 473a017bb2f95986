// Package store is the typed query/command layer over the record store for
// sessions, participants, draft questions, permanent questions and the
// activity log. It owns no business rules; callers interpret the sentinel
// errors it returns.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Client struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Client {
	return &Client{db: db}
}

func (c *Client) GetSession(sessionID uint) (*models.Session, error) {
	var session models.Session
	if err := c.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session %d: %w", sessionID, err)
	}
	return &session, nil
}

func (c *Client) CreateSession(session *models.Session) error {
	if err := c.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (c *Client) SetSessionActive(sessionID uint, active bool) error {
	res := c.db.Model(&models.Session{}).Where("id = ?", sessionID).Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("set session %d active=%v: %w", sessionID, active, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) ListActiveSessions() ([]models.Session, error) {
	var sessions []models.Session
	if err := c.db.Where("active = ?", true).
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return sessions, nil
}

func (c *Client) GetParticipant(sessionID, userID uint) (*models.SessionParticipant, error) {
	var participant models.SessionParticipant
	if err := c.db.Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get participant (%d,%d): %w", sessionID, userID, err)
	}
	return &participant, nil
}

func (c *Client) ListParticipants(sessionID uint) ([]models.SessionParticipant, error) {
	var participants []models.SessionParticipant
	if err := c.db.Where("session_id = ?", sessionID).
		Preload("User").
		Order("joined_at ASC").
		Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("list participants for session %d: %w", sessionID, err)
	}
	return participants, nil
}

// CreateParticipant inserts a membership row. A violation of the
// (session_id, user_id) unique index comes back as ErrDuplicate so callers
// can treat repeated joins as idempotent.
func (c *Client) CreateParticipant(participant *models.SessionParticipant) error {
	if participant.JoinedAt.IsZero() {
		participant.JoinedAt = time.Now()
	}
	if err := c.db.Create(participant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

func (c *Client) CreateDraft(draft *models.DraftQuestion) error {
	if err := c.db.Create(draft).Error; err != nil {
		return fmt.Errorf("create draft question: %w", err)
	}
	return nil
}

func (c *Client) GetDraft(draftID uint) (*models.DraftQuestion, error) {
	var draft models.DraftQuestion
	if err := c.db.First(&draft, draftID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get draft %d: %w", draftID, err)
	}
	return &draft, nil
}

func (c *Client) SaveDraft(draft *models.DraftQuestion) error {
	if err := c.db.Save(draft).Error; err != nil {
		return fmt.Errorf("save draft %d: %w", draft.ID, err)
	}
	return nil
}

func (c *Client) ListDrafts(sessionID uint) ([]models.DraftQuestion, error) {
	var drafts []models.DraftQuestion
	if err := c.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&drafts).Error; err != nil {
		return nil, fmt.Errorf("list drafts for session %d: %w", sessionID, err)
	}
	return drafts, nil
}

func (c *Client) ListDraftsByStatus(sessionID uint, status string) ([]models.DraftQuestion, error) {
	var drafts []models.DraftQuestion
	if err := c.db.Where("session_id = ? AND status = ?", sessionID, status).
		Order("created_at ASC").
		Find(&drafts).Error; err != nil {
		return nil, fmt.Errorf("list %s drafts for session %d: %w", status, sessionID, err)
	}
	return drafts, nil
}

// AdvanceDraftStatus moves one draft from one status to the next, keyed by id
// and guarded by the current status so concurrent reviewers of the same row
// cannot both win. Returns false when the row was not in the expected status.
func (c *Client) AdvanceDraftStatus(draftID uint, from, to string) (bool, error) {
	res := c.db.Model(&models.DraftQuestion{}).
		Where("id = ? AND status = ?", draftID, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("advance draft %d %s->%s: %w", draftID, from, to, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (c *Client) InsertQuestions(questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	if err := c.db.Create(&questions).Error; err != nil {
		return fmt.Errorf("insert %d questions: %w", len(questions), err)
	}
	return nil
}

func (c *Client) MarkDraftsPublished(draftIDs []uint) error {
	if len(draftIDs) == 0 {
		return nil
	}
	if err := c.db.Model(&models.DraftQuestion{}).
		Where("id IN ?", draftIDs).
		Update("status", models.DraftStatusPublished).Error; err != nil {
		return fmt.Errorf("mark %d drafts published: %w", len(draftIDs), err)
	}
	return nil
}

func (c *Client) AppendActivity(entry *models.ActivityEntry) error {
	if err := c.db.Create(entry).Error; err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (c *Client) ListActivity(sessionID uint, limit int) ([]models.ActivityEntry, error) {
	var entries []models.ActivityEntry
	q := c.db.Where("session_id = ?", sessionID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list activity for session %d: %w", sessionID, err)
	}
	return entries, nil
}

func (c *Client) GetQuestion(questionID uint) (*models.Question, error) {
	var question models.Question
	if err := c.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get question %d: %w", questionID, err)
	}
	return &question, nil
}

// ListQuestions returns questions visible to the caller: their own, plus
// university-visible questions of their university.
func (c *Client) ListQuestions(userID uint, subject, university string) ([]models.Question, error) {
	q := c.db.Order("created_at DESC").
		Where("creator_id = ? OR (visibility = ? AND university = ?)",
			userID, models.VisibilityUniversity, university)
	if subject != "" {
		q = q.Where("subject = ?", subject)
	}
	var questions []models.Question
	if err := q.Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}
