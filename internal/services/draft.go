package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/bus"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/models"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/queue"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/store"
)

const minQuestionLength = 10

// DraftService owns the draft-question state machine:
// draft -> reviewed -> published, forward only.
type DraftService struct {
	store    Store
	activity *ActivityService
	bus      *bus.Bus
	queue    queue.Enqueuer
}

func NewDraftService(st Store, activity *ActivityService, b *bus.Bus, q queue.Enqueuer) *DraftService {
	return &DraftService{store: st, activity: activity, bus: b, queue: q}
}

// DraftInput carries caller-supplied question content.
type DraftInput struct {
	Text          string `json:"question" binding:"required"`
	OptionA       string `json:"option_a" binding:"required"`
	OptionB       string `json:"option_b" binding:"required"`
	OptionC       string `json:"option_c" binding:"required"`
	OptionD       string `json:"option_d" binding:"required"`
	OptionE       string `json:"option_e" binding:"required"`
	CorrectAnswer string `json:"correct_answer" binding:"required"`
	Comment       string `json:"comment"`
	Difficulty    int    `json:"difficulty"`
}

func (in *DraftInput) validate() *Error {
	if len(strings.TrimSpace(in.Text)) < minQuestionLength {
		return invalid("question text must be at least %d characters", minQuestionLength)
	}
	options := map[string]string{
		"A": in.OptionA, "B": in.OptionB, "C": in.OptionC, "D": in.OptionD, "E": in.OptionE,
	}
	for _, letter := range models.AnswerLetters {
		if strings.TrimSpace(options[letter]) == "" {
			return invalid("option %s must not be empty", letter)
		}
	}
	if !models.ValidAnswerLetter(in.CorrectAnswer) {
		return invalid("correct answer must be one of A, B, C, D, E")
	}
	if in.Difficulty < 1 || in.Difficulty > 5 {
		return invalid("difficulty must be between 1 and 5")
	}
	return nil
}

// CreateDraft inserts a new draft question for a session the caller has
// joined. Validation happens before any write.
func (s *DraftService) CreateDraft(sessionID, userID uint, input DraftInput) (*models.DraftQuestion, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	session, membership, err := s.sessionMembership(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !session.Active {
		return nil, conflict("session is closed")
	}
	if !membership.joined {
		return nil, denied("join the session before adding questions")
	}

	draft := models.DraftQuestion{
		SessionID:     sessionID,
		CreatorID:     userID,
		Text:          strings.TrimSpace(input.Text),
		OptionA:       input.OptionA,
		OptionB:       input.OptionB,
		OptionC:       input.OptionC,
		OptionD:       input.OptionD,
		OptionE:       input.OptionE,
		CorrectAnswer: input.CorrectAnswer,
		Comment:       input.Comment,
		Difficulty:    input.Difficulty,
		Status:        models.DraftStatusDraft,
	}
	if err := s.store.CreateDraft(&draft); err != nil {
		return nil, transient(err, "could not save the question")
	}

	s.activity.Record(sessionID, userID, models.ActionQuestionCreated, &draft.ID, truncate(draft.Text, 120))
	s.bus.Publish(bus.Event{SessionID: sessionID, Collection: bus.CollectionDrafts, Op: bus.OpInsert})
	return &draft, nil
}

// UpdateDraft edits draft content as a whole record (last write wins).
// Only drafts in status draft may be edited, by their creator or a host.
func (s *DraftService) UpdateDraft(draftID, userID uint, input DraftInput) (*models.DraftQuestion, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	draft, err := s.getDraft(draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != models.DraftStatusDraft {
		return nil, conflict("only unreviewed drafts can be edited")
	}

	_, membership, err := s.sessionMembership(draft.SessionID, userID)
	if err != nil {
		return nil, err
	}
	if draft.CreatorID != userID && !membership.host {
		return nil, denied("only the question creator or a host can edit this draft")
	}

	draft.Text = strings.TrimSpace(input.Text)
	draft.OptionA = input.OptionA
	draft.OptionB = input.OptionB
	draft.OptionC = input.OptionC
	draft.OptionD = input.OptionD
	draft.OptionE = input.OptionE
	draft.CorrectAnswer = input.CorrectAnswer
	draft.Comment = input.Comment
	draft.Difficulty = input.Difficulty

	if err := s.store.SaveDraft(draft); err != nil {
		return nil, transient(err, "could not save the question")
	}

	s.activity.Record(draft.SessionID, userID, models.ActionQuestionUpdated, &draft.ID, truncate(draft.Text, 120))
	s.bus.Publish(bus.Event{SessionID: draft.SessionID, Collection: bus.CollectionDrafts, Op: bus.OpUpdate})
	return draft, nil
}

// ReviewDraft advances one draft to reviewed. Host only; reviewing a
// non-draft question is an explicit Conflict, not a silent success.
func (s *DraftService) ReviewDraft(draftID, userID uint) (*models.DraftQuestion, error) {
	draft, err := s.getDraft(draftID)
	if err != nil {
		return nil, err
	}

	_, membership, err := s.sessionMembership(draft.SessionID, userID)
	if err != nil {
		return nil, err
	}
	if !membership.host {
		return nil, denied("only a host can review questions")
	}

	ok, err := s.store.AdvanceDraftStatus(draftID, models.DraftStatusDraft, models.DraftStatusReviewed)
	if err != nil {
		return nil, transient(err, "could not update question status")
	}
	if !ok {
		return nil, conflict("question is no longer in draft status")
	}
	draft.Status = models.DraftStatusReviewed

	s.activity.Record(draft.SessionID, userID, models.ActionQuestionReviewed, &draft.ID, truncate(draft.Text, 120))
	s.bus.Publish(bus.Event{SessionID: draft.SessionID, Collection: bus.CollectionDrafts, Op: bus.OpUpdate})
	return draft, nil
}

// PublishResult reports the outcome of a bulk publish.
type PublishResult struct {
	Published int    `json:"published"`
	Message   string `json:"message"`
}

// PublishSession materializes every reviewed draft of the session into the
// permanent question store, then marks the drafts published.
//
// The two phases are not atomic across stores: when the insert fails nothing
// changes, and when only the status update fails the error carries
// CodePartialPublish so the inconsistency can be repaired by retrying the
// update alone. Publishing with no reviewed drafts is a safe no-op, which
// also makes concurrent publish calls harmless.
func (s *DraftService) PublishSession(ctx context.Context, sessionID, userID uint) (*PublishResult, error) {
	session, membership, err := s.sessionMembership(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !membership.host {
		return nil, denied("only a host can publish questions")
	}

	reviewed, err := s.store.ListDraftsByStatus(sessionID, models.DraftStatusReviewed)
	if err != nil {
		return nil, transient(err, "could not load reviewed questions")
	}
	if len(reviewed) == 0 {
		return &PublishResult{Published: 0, Message: "nothing to publish"}, nil
	}

	visibility := models.VisibilityPrivate
	if session.University != "" {
		visibility = models.VisibilityUniversity
	}
	filename := fmt.Sprintf("Session: %s (#%d)", session.Title, session.ID)

	questions := make([]models.Question, len(reviewed))
	draftIDs := make([]uint, len(reviewed))
	for i, draft := range reviewed {
		draftIDs[i] = draft.ID
		questions[i] = models.Question{
			CreatorID:     draft.CreatorID,
			Text:          draft.Text,
			OptionA:       draft.OptionA,
			OptionB:       draft.OptionB,
			OptionC:       draft.OptionC,
			OptionD:       draft.OptionD,
			OptionE:       draft.OptionE,
			CorrectAnswer: draft.CorrectAnswer,
			Comment:       draft.Comment,
			Subject:       session.Subject,
			Difficulty:    draft.Difficulty,
			University:    session.University,
			Visibility:    visibility,
			Filename:      filename,
		}
	}

	if err := s.store.InsertQuestions(questions); err != nil {
		return nil, transient(err, "could not publish questions")
	}
	if err := s.store.MarkDraftsPublished(draftIDs); err != nil {
		return nil, partialPublish(err, len(questions))
	}

	s.activity.Record(sessionID, userID, models.ActionQuestionsPublished, nil,
		fmt.Sprintf("%d questions published", len(questions)))
	s.bus.Publish(bus.Event{SessionID: sessionID, Collection: bus.CollectionDrafts, Op: bus.OpUpdate})

	for _, q := range questions {
		if err := s.queue.EnqueueCommentary(ctx, q.ID); err != nil {
			log.Printf("draft: commentary enqueue for question %d failed: %v", q.ID, err)
		}
	}

	return &PublishResult{
		Published: len(questions),
		Message:   fmt.Sprintf("published %d questions", len(questions)),
	}, nil
}

func (s *DraftService) getDraft(draftID uint) (*models.DraftQuestion, error) {
	draft, err := s.store.GetDraft(draftID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("question %d not found", draftID)
		}
		return nil, transient(err, "could not load question %d", draftID)
	}
	return draft, nil
}

type membership struct {
	joined bool
	host   bool
}

// sessionMembership resolves the caller's role. The creator is host without
// a participant row; a failed participant lookup denies rather than grants.
func (s *DraftService) sessionMembership(sessionID, userID uint) (*models.Session, membership, error) {
	session, err := s.store.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, membership{}, notFound("session %d not found", sessionID)
		}
		return nil, membership{}, transient(err, "could not load session %d", sessionID)
	}

	if session.CreatorID == userID {
		return session, membership{joined: true, host: true}, nil
	}

	participant, err := s.store.GetParticipant(sessionID, userID)
	switch {
	case err == nil:
		return session, membership{joined: true, host: participant.Role == models.RoleHost}, nil
	case errors.Is(err, store.ErrNotFound):
		return session, membership{}, nil
	default:
		log.Printf("draft: participant check for (%d,%d) failed, denying: %v", sessionID, userID, err)
		return session, membership{}, nil
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
