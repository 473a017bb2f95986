package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/bus"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/models"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/queue"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/store"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newCollabEnv wires the full service stack over an in-memory store, the way
// main does it, with the commentary queue disabled.
func newCollabEnv(t *testing.T) (*CollabService, *store.Client) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.SessionParticipant{},
		&models.DraftQuestion{},
		&models.Question{},
		&models.ActivityEntry{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	st := store.New(db)
	return buildCollab(st), st
}

func buildCollab(st Store) *CollabService {
	b := bus.New()
	activity := NewActivityService(st)
	syncSvc := NewSyncService(st, b)
	drafts := NewDraftService(st, activity, b, queue.Noop{})
	return NewCollabService(st, syncSvc, drafts, activity, b)
}

const (
	hostID        = uint(1)
	participantID = uint(2)
	strangerID    = uint(3)
)

func openSession(t *testing.T, collab *CollabService) *models.Session {
	t.Helper()
	session, err := collab.CreateSession(hostID, SessionInput{
		Title:      "Physiology Finals 2025",
		Subject:    "Physiology",
		Semester:   "WS24",
		University: "LMU",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := collab.JoinSession(session.ID, participantID); err != nil {
		t.Fatalf("participant join: %v", err)
	}
	return session
}

func validInput() DraftInput {
	return DraftInput{
		Text:          "Which hormone is the primary driver of the plateau phase of the cardiac action potential?",
		OptionA:       "Calcium influx through L-type channels",
		OptionB:       "Sodium influx",
		OptionC:       "Potassium efflux",
		OptionD:       "Chloride influx",
		OptionE:       "Magnesium efflux",
		CorrectAnswer: "A",
		Comment:       "Phase 2 is calcium-dependent.",
		Difficulty:    3,
	}
}

func TestAddQuestionValidation(t *testing.T) {
	collab, st := newCollabEnv(t)
	session := openSession(t, collab)

	tests := []struct {
		name   string
		mutate func(*DraftInput)
	}{
		{"short text", func(in *DraftInput) { in.Text = "too short" }},
		{"blank option", func(in *DraftInput) { in.OptionC = "   " }},
		{"invalid answer letter", func(in *DraftInput) { in.CorrectAnswer = "F" }},
		{"lowercase answer letter", func(in *DraftInput) { in.CorrectAnswer = "a" }},
		{"difficulty too low", func(in *DraftInput) { in.Difficulty = 0 }},
		{"difficulty too high", func(in *DraftInput) { in.Difficulty = 6 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)

			_, err := collab.AddQuestion(session.ID, participantID, input)
			if CodeOf(err) != CodeValidation {
				t.Fatalf("code = %v, want validation_error", CodeOf(err))
			}
		})
	}

	// Rejected input must leave no partial rows behind.
	drafts, err := st.ListDrafts(session.ID)
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 0 {
		t.Fatalf("invalid input wrote %d drafts", len(drafts))
	}
}

func TestAddQuestionRequiresMembership(t *testing.T) {
	collab, _ := newCollabEnv(t)
	session := openSession(t, collab)

	if _, err := collab.AddQuestion(session.ID, strangerID, validInput()); CodeOf(err) != CodePermissionDenied {
		t.Fatalf("code = %v, want permission_denied", CodeOf(err))
	}
}

func TestAddQuestionClosedSession(t *testing.T) {
	collab, _ := newCollabEnv(t)
	session := openSession(t, collab)

	if err := collab.CloseSession(session.ID, hostID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := collab.AddQuestion(session.ID, participantID, validInput()); CodeOf(err) != CodeConflict {
		t.Fatalf("code = %v, want conflict", CodeOf(err))
	}
}

func TestAddQuestionReturnsRefreshedState(t *testing.T) {
	collab, _ := newCollabEnv(t)
	session := openSession(t, collab)

	state, err := collab.AddQuestion(session.ID, participantID, validInput())
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if len(state.Questions) != 1 {
		t.Fatalf("state carries %d questions, want 1", len(state.Questions))
	}
	q := state.Questions[0]
	if q.Status != models.DraftStatusDraft {
		t.Errorf("new question status = %q, want draft", q.Status)
	}
	if q.CreatorID != participantID {
		t.Errorf("creator = %d, want %d", q.CreatorID, participantID)
	}
}

func TestReviewRequiresHost(t *testing.T) {
	collab, st := newCollabEnv(t)
	session := openSession(t, collab)

	state, err := collab.AddQuestion(session.ID, participantID, validInput())
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	draftID := state.Questions[0].ID

	if _, err := collab.UpdateQuestionStatus(draftID, participantID); CodeOf(err) != CodePermissionDenied {
		t.Fatalf("code = %v, want permission_denied", CodeOf(err))
	}

	stored, err := st.GetDraft(draftID)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if stored.Status != models.DraftStatusDraft {
		t.Errorf("denied review changed status to %q", stored.Status)
	}
}

func TestReviewAdvancesOnceThenConflicts(t *testing.T) {
	collab, _ := newCollabEnv(t)
	session := openSession(t, collab)

	state, err := collab.AddQuestion(session.ID, participantID, validInput())
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	draftID := state.Questions[0].ID

	reviewed, err := collab.UpdateQuestionStatus(draftID, hostID)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != models.DraftStatusReviewed {
		t.Fatalf("status = %q, want reviewed", reviewed.Status)
	}

	if _, err := collab.UpdateQuestionStatus(draftID, hostID); CodeOf(err) != CodeConflict {
		t.Fatalf("second review: code = %v, want conflict", CodeOf(err))
	}
}

func TestEditDraftPermissions(t *testing.T) {
	collab, _ := newCollabEnv(t)
	session := openSession(t, collab)
	if _, err := collab.JoinSession(session.ID, strangerID); err != nil {
		t.Fatalf("third member join: %v", err)
	}

	state, err := collab.AddQuestion(session.ID, participantID, validInput())
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	draftID := state.Questions[0].ID

	// Another non-host participant may not edit someone else's draft.
	edit := validInput()
	edit.Comment = "tweaked"
	if _, err := collab.UpdateQuestion(draftID, strangerID, edit); CodeOf(err) != CodePermissionDenied {
		t.Fatalf("peer edit: code = %v, want permission_denied", CodeOf(err))
	}

	// The host may edit any draft.
	edit.Text = "Which channel carries the plateau current of the ventricular action potential?"
	updated, err := collab.UpdateQuestion(draftID, hostID, edit)
	if err != nil {
		t.Fatalf("host edit: %v", err)
	}
	if updated.Text != edit.Text {
		t.Errorf("text not updated: %q", updated.Text)
	}

	// Once reviewed, content is frozen for everyone.
	if _, err := collab.UpdateQuestionStatus(draftID, hostID); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := collab.UpdateQuestion(draftID, participantID, edit); CodeOf(err) != CodeConflict {
		t.Fatalf("edit after review: code = %v, want conflict", CodeOf(err))
	}
}

func TestPublishLifecycle(t *testing.T) {
	collab, st := newCollabEnv(t)
	session := openSession(t, collab)
	ctx := context.Background()

	var draftIDs []uint
	for i := 0; i < 3; i++ {
		input := validInput()
		input.Text = input.Text + strings.Repeat(" (variant)", i)
		state, err := collab.AddQuestion(session.ID, participantID, input)
		if err != nil {
			t.Fatalf("add question %d: %v", i, err)
		}
		draftIDs = append(draftIDs, state.Questions[i].ID)
	}

	// Review two of three; the third stays a draft.
	for _, id := range draftIDs[:2] {
		if _, err := collab.UpdateQuestionStatus(id, hostID); err != nil {
			t.Fatalf("review %d: %v", id, err)
		}
	}

	result, err := collab.PublishQuestions(ctx, session.ID, hostID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if result.Published != 2 {
		t.Fatalf("published = %d, want 2", result.Published)
	}

	questions, err := st.ListQuestions(participantID, "", "LMU")
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("question bank has %d rows, want 2", len(questions))
	}
	for _, q := range questions {
		if q.Subject != "Physiology" {
			t.Errorf("subject = %q, want Physiology", q.Subject)
		}
		if q.Visibility != models.VisibilityUniversity || q.University != "LMU" {
			t.Errorf("visibility = %q/%q, want university/LMU", q.Visibility, q.University)
		}
		if !strings.Contains(q.Filename, session.Title) {
			t.Errorf("filename %q does not carry session provenance", q.Filename)
		}
		if q.CreatorID != participantID {
			t.Errorf("creator = %d, want the draft author %d", q.CreatorID, participantID)
		}
	}

	// The unreviewed draft is untouched, the published ones advanced.
	remaining, err := st.ListDraftsByStatus(session.ID, models.DraftStatusDraft)
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("%d drafts left unreviewed, want 1", len(remaining))
	}
	published, err := st.ListDraftsByStatus(session.ID, models.DraftStatusPublished)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(published) != 2 {
		t.Errorf("%d drafts marked published, want 2", len(published))
	}

	// Publishing again with nothing reviewed is a safe no-op.
	again, err := collab.PublishQuestions(ctx, session.ID, hostID)
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if again.Published != 0 {
		t.Errorf("republish inserted %d questions, want 0", again.Published)
	}
	questions, err = st.ListQuestions(participantID, "", "LMU")
	if err != nil {
		t.Fatalf("list questions after republish: %v", err)
	}
	if len(questions) != 2 {
		t.Errorf("republish duplicated rows: %d, want 2", len(questions))
	}
}

func TestPublishRequiresHost(t *testing.T) {
	collab, _ := newCollabEnv(t)
	session := openSession(t, collab)

	if _, err := collab.PublishQuestions(context.Background(), session.ID, participantID); CodeOf(err) != CodePermissionDenied {
		t.Fatalf("code = %v, want permission_denied", CodeOf(err))
	}
}

func TestPublishPrivateWithoutUniversity(t *testing.T) {
	collab, st := newCollabEnv(t)
	session, err := collab.CreateSession(hostID, SessionInput{Title: "Private prep", Subject: "Pharmacology"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	state, err := collab.AddQuestion(session.ID, hostID, validInput())
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if _, err := collab.UpdateQuestionStatus(state.Questions[0].ID, hostID); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := collab.PublishQuestions(context.Background(), session.ID, hostID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	questions, err := st.ListQuestions(hostID, "", "")
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 1 || questions[0].Visibility != models.VisibilityPrivate {
		t.Fatalf("expected 1 private question, got %+v", questions)
	}
}

// failingMarkStore delegates to a real store but fails the second publish
// phase, leaving inserted questions with unmarked drafts.
type failingMarkStore struct {
	Store
}

func (s *failingMarkStore) MarkDraftsPublished([]uint) error {
	return errors.New("write timeout")
}

func TestPublishPartialFailureIsReported(t *testing.T) {
	_, st := newCollabEnv(t)
	collab := buildCollab(&failingMarkStore{Store: st})
	session := openSession(t, collab)

	state, err := collab.AddQuestion(session.ID, hostID, validInput())
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if _, err := collab.UpdateQuestionStatus(state.Questions[0].ID, hostID); err != nil {
		t.Fatalf("review: %v", err)
	}

	_, err = collab.PublishQuestions(context.Background(), session.ID, hostID)
	if CodeOf(err) != CodePartialPublish {
		t.Fatalf("code = %v, want partial_publish_failure", CodeOf(err))
	}

	// Phase one committed: the questions exist even though marking failed.
	questions, err := st.ListQuestions(hostID, "", "LMU")
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("question bank has %d rows, want 1", len(questions))
	}
	reviewed, err := st.ListDraftsByStatus(session.ID, models.DraftStatusReviewed)
	if err != nil {
		t.Fatalf("list reviewed: %v", err)
	}
	if len(reviewed) != 1 {
		t.Fatalf("draft should still be reviewed for retry, got %d", len(reviewed))
	}
}
