package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/bus"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/models"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/store"
)

// CollabService is the single entry point for collaborative drafting. It
// wraps the synchronizer, the draft lifecycle and the activity log behind one
// contract: tolerant degradation on reads, surfaced failures on writes, and a
// change event after every confirmed mutation so all connected clients
// reconverge on the server-confirmed state.
type CollabService struct {
	store    Store
	sync     *SyncService
	drafts   *DraftService
	activity *ActivityService
	bus      *bus.Bus
}

func NewCollabService(st Store, sync *SyncService, drafts *DraftService, activity *ActivityService, b *bus.Bus) *CollabService {
	return &CollabService{store: st, sync: sync, drafts: drafts, activity: activity, bus: b}
}

// SessionInput carries the fields for creating a session.
type SessionInput struct {
	Title       string `json:"title" binding:"required,min=3,max=255"`
	Description string `json:"description"`
	Subject     string `json:"subject" binding:"required"`
	Semester    string `json:"semester"`
	Year        int    `json:"year"`
	University  string `json:"university"`
}

// CreateSession opens a new drafting session with the caller as creator. The
// creator is implicitly a joined host; a participant row is written anyway so
// the member list is complete for other clients.
func (s *CollabService) CreateSession(userID uint, input SessionInput) (*models.Session, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Subject) == "" {
		return nil, invalid("title and subject are required")
	}

	session := models.Session{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Subject:     strings.TrimSpace(input.Subject),
		Semester:    input.Semester,
		Year:        input.Year,
		University:  input.University,
		CreatorID:   userID,
		Active:      true,
	}
	if err := s.store.CreateSession(&session); err != nil {
		return nil, transient(err, "could not create session")
	}

	host := models.SessionParticipant{SessionID: session.ID, UserID: userID, Role: models.RoleHost}
	if err := s.store.CreateParticipant(&host); err != nil && !errors.Is(err, store.ErrDuplicate) {
		// The creator is host by creator_id regardless, so a missing row only
		// affects the displayed member list.
		log.Printf("collab: creator self-join for session %d failed: %v", session.ID, err)
	}

	return &session, nil
}

func (s *CollabService) ListSessions() ([]models.Session, error) {
	sessions, err := s.store.ListActiveSessions()
	if err != nil {
		return nil, transient(err, "could not list sessions")
	}
	return sessions, nil
}

// GetSession returns the full projection for the caller, per the
// synchronizer's tolerant load semantics.
func (s *CollabService) GetSession(sessionID, userID uint) (*SessionState, error) {
	return s.sync.Load(sessionID, userID)
}

// CheckParticipation reports membership and role without loading the
// collections. A failed participant lookup degrades to "not joined".
func (s *CollabService) CheckParticipation(sessionID, userID uint) (hasJoined, isHost bool, err error) {
	state, err := s.sync.Load(sessionID, userID)
	if err != nil {
		return false, false, err
	}
	return state.HasJoined, state.IsHost, nil
}

func (s *CollabService) GetParticipants(sessionID uint) ([]models.SessionParticipant, error) {
	participants, err := s.store.ListParticipants(sessionID)
	if err != nil {
		return nil, transient(err, "could not load participants")
	}
	return participants, nil
}

func (s *CollabService) GetQuestions(sessionID uint) ([]models.DraftQuestion, error) {
	questions, err := s.store.ListDrafts(sessionID)
	if err != nil {
		return nil, transient(err, "could not load questions")
	}
	return questions, nil
}

// JoinSession adds the caller as participant. Joining twice is a no-op
// success; the full projection is reloaded regardless of the insert outcome
// so the caller always leaves with server-confirmed state.
func (s *CollabService) JoinSession(sessionID, userID uint) (*SessionState, error) {
	session, err := s.store.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("session %d not found", sessionID)
		}
		return nil, transient(err, "could not load session %d", sessionID)
	}

	// The creator is a member by definition and never needs a row to join.
	var joinErr error
	if session.CreatorID != userID {
		if _, err := s.store.GetParticipant(sessionID, userID); err != nil {
			if !session.Active {
				joinErr = conflict("session is closed to new participants")
			} else {
				participant := models.SessionParticipant{
					SessionID: sessionID,
					UserID:    userID,
					Role:      models.RoleParticipant,
				}
				switch err := s.store.CreateParticipant(&participant); {
				case err == nil:
					s.activity.Record(sessionID, userID, models.ActionJoined, nil, "")
					s.bus.Publish(bus.Event{SessionID: sessionID, Collection: bus.CollectionParticipants, Op: bus.OpInsert})
				case errors.Is(err, store.ErrDuplicate):
					// already joined, idempotent success
				default:
					joinErr = transient(err, "could not join session")
				}
			}
		}
	}

	// Resynchronize regardless of the insert outcome.
	state, loadErr := s.sync.Load(sessionID, userID)
	if joinErr != nil {
		return state, joinErr
	}
	if loadErr != nil {
		return nil, loadErr
	}
	return state, nil
}

// AddQuestion creates a draft and returns the resynchronized projection.
func (s *CollabService) AddQuestion(sessionID, userID uint, input DraftInput) (*SessionState, error) {
	if _, err := s.drafts.CreateDraft(sessionID, userID, input); err != nil {
		return nil, err
	}
	return s.sync.Load(sessionID, userID)
}

// UpdateQuestion edits draft content (whole-record, last write wins).
func (s *CollabService) UpdateQuestion(draftID, userID uint, input DraftInput) (*models.DraftQuestion, error) {
	return s.drafts.UpdateDraft(draftID, userID, input)
}

// UpdateQuestionStatus advances a draft to reviewed.
func (s *CollabService) UpdateQuestionStatus(draftID, userID uint) (*models.DraftQuestion, error) {
	return s.drafts.ReviewDraft(draftID, userID)
}

// PublishQuestions materializes all reviewed drafts of the session.
func (s *CollabService) PublishQuestions(ctx context.Context, sessionID, userID uint) (*PublishResult, error) {
	return s.drafts.PublishSession(ctx, sessionID, userID)
}

// CloseSession deactivates the session. Host only; closed sessions accept no
// new joins but stay readable for existing participants.
func (s *CollabService) CloseSession(sessionID, userID uint) error {
	return s.setActive(sessionID, userID, false, models.ActionSessionClosed)
}

// ReopenSession reactivates a closed session. Host only.
func (s *CollabService) ReopenSession(sessionID, userID uint) error {
	return s.setActive(sessionID, userID, true, models.ActionSessionReopened)
}

func (s *CollabService) setActive(sessionID, userID uint, active bool, action string) error {
	state, err := s.sync.Load(sessionID, userID)
	if err != nil {
		return err
	}
	if !state.IsHost {
		return denied("only a host can close or reopen a session")
	}
	if state.Session.Active == active {
		return nil
	}

	if err := s.store.SetSessionActive(sessionID, active); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("session %d not found", sessionID)
		}
		return transient(err, "could not update session")
	}

	s.activity.Record(sessionID, userID, action, nil, "")
	s.bus.Publish(bus.Event{SessionID: sessionID, Collection: bus.CollectionSessions, Op: bus.OpUpdate})
	return nil
}

// SubscribeToSession starts a watcher delivering server-confirmed state on
// every change. Callers must Stop it on disconnect.
func (s *CollabService) SubscribeToSession(sessionID, userID uint, onUpdate func(*SessionState)) (*Watcher, error) {
	return s.sync.Watch(sessionID, userID, onUpdate)
}

// ActivityFeed returns the newest activity entries for a session.
func (s *CollabService) ActivityFeed(sessionID uint, limit int) ([]models.ActivityEntry, error) {
	return s.activity.Feed(sessionID, limit)
}
