package services

import (
	"testing"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/models"
)

func TestCreateSessionWritesHostMembership(t *testing.T) {
	collab, st := newCollabEnv(t)

	session, err := collab.CreateSession(hostID, SessionInput{Title: "Neuro block", Subject: "Neurology"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !session.Active {
		t.Error("new session must start active")
	}

	participants, err := st.ListParticipants(session.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(participants) != 1 {
		t.Fatalf("expected the creator's membership row, got %d rows", len(participants))
	}
	if participants[0].UserID != hostID || participants[0].Role != models.RoleHost {
		t.Errorf("creator row = %+v, want host %d", participants[0], hostID)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	collab, _ := newCollabEnv(t)

	if _, err := collab.CreateSession(hostID, SessionInput{Title: "   ", Subject: "Anatomy"}); CodeOf(err) != CodeValidation {
		t.Errorf("blank title: code = %v, want validation_error", CodeOf(err))
	}
	if _, err := collab.CreateSession(hostID, SessionInput{Title: "Anatomy block", Subject: " "}); CodeOf(err) != CodeValidation {
		t.Errorf("blank subject: code = %v, want validation_error", CodeOf(err))
	}
}

func TestJoinSessionIdempotent(t *testing.T) {
	collab, st := newCollabEnv(t)
	session, err := collab.CreateSession(hostID, SessionInput{Title: "Histo drafting", Subject: "Histology"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	first, err := collab.JoinSession(session.ID, participantID)
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	if !first.HasJoined || first.IsHost {
		t.Errorf("first join: HasJoined=%v IsHost=%v, want joined non-host", first.HasJoined, first.IsHost)
	}

	second, err := collab.JoinSession(session.ID, participantID)
	if err != nil {
		t.Fatalf("second join must succeed: %v", err)
	}
	if !second.HasJoined {
		t.Error("second join lost membership")
	}

	participants, err := st.ListParticipants(session.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(participants) != 2 { // creator + participant
		t.Fatalf("expected 2 membership rows, got %d", len(participants))
	}
}

func TestJoinClosedSession(t *testing.T) {
	collab, _ := newCollabEnv(t)
	session := openSession(t, collab)

	if err := collab.CloseSession(session.ID, hostID); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A new user cannot join a closed session.
	if _, err := collab.JoinSession(session.ID, strangerID); CodeOf(err) != CodeConflict {
		t.Fatalf("new join on closed session: code = %v, want conflict", CodeOf(err))
	}

	// An existing member rejoining a closed session still gets state.
	state, err := collab.JoinSession(session.ID, participantID)
	if err != nil {
		t.Fatalf("member rejoin on closed session: %v", err)
	}
	if !state.HasJoined {
		t.Error("existing member lost access on close")
	}
}

func TestJoinAsCreatorNeedsNoRow(t *testing.T) {
	collab, st := newCollabEnv(t)
	session, err := collab.CreateSession(hostID, SessionInput{Title: "Biochem drafting", Subject: "Biochemistry"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	state, err := collab.JoinSession(session.ID, hostID)
	if err != nil {
		t.Fatalf("creator join: %v", err)
	}
	if !state.HasJoined || !state.IsHost {
		t.Errorf("creator: HasJoined=%v IsHost=%v, want both true", state.HasJoined, state.IsHost)
	}

	participants, err := st.ListParticipants(session.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(participants) != 1 {
		t.Fatalf("creator join added rows: %d, want 1", len(participants))
	}
}

func TestJoinUnknownSession(t *testing.T) {
	collab, _ := newCollabEnv(t)

	if _, err := collab.JoinSession(404, participantID); CodeOf(err) != CodeNotFound {
		t.Fatalf("code = %v, want not_found", CodeOf(err))
	}
}

func TestCloseAndReopen(t *testing.T) {
	collab, st := newCollabEnv(t)
	session := openSession(t, collab)

	if err := collab.CloseSession(session.ID, participantID); CodeOf(err) != CodePermissionDenied {
		t.Fatalf("non-host close: code = %v, want permission_denied", CodeOf(err))
	}

	if err := collab.CloseSession(session.ID, hostID); err != nil {
		t.Fatalf("close: %v", err)
	}
	stored, err := st.GetSession(session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored.Active {
		t.Fatal("session still active after close")
	}

	// Closing an already-closed session is a no-op.
	if err := collab.CloseSession(session.ID, hostID); err != nil {
		t.Fatalf("repeat close: %v", err)
	}

	if err := collab.ReopenSession(session.ID, hostID); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	stored, err = st.GetSession(session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !stored.Active {
		t.Fatal("session inactive after reopen")
	}
}

func TestClosedSessionHiddenFromListing(t *testing.T) {
	collab, _ := newCollabEnv(t)
	open := openSession(t, collab)
	closed, err := collab.CreateSession(hostID, SessionInput{Title: "Old drafting round", Subject: "Anatomy"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := collab.CloseSession(closed.ID, hostID); err != nil {
		t.Fatalf("close: %v", err)
	}

	sessions, err := collab.ListSessions()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != open.ID {
		t.Fatalf("expected only the open session, got %+v", sessions)
	}
}

func TestCheckParticipation(t *testing.T) {
	collab, _ := newCollabEnv(t)
	session := openSession(t, collab)

	joined, isHost, err := collab.CheckParticipation(session.ID, hostID)
	if err != nil || !joined || !isHost {
		t.Errorf("host: joined=%v host=%v err=%v", joined, isHost, err)
	}
	joined, isHost, err = collab.CheckParticipation(session.ID, participantID)
	if err != nil || !joined || isHost {
		t.Errorf("participant: joined=%v host=%v err=%v", joined, isHost, err)
	}
	joined, _, err = collab.CheckParticipation(session.ID, strangerID)
	if err != nil || joined {
		t.Errorf("stranger: joined=%v err=%v", joined, err)
	}
}

func TestActivityFeedRecordsLifecycle(t *testing.T) {
	collab, _ := newCollabEnv(t)
	session := openSession(t, collab)

	state, err := collab.AddQuestion(session.ID, participantID, validInput())
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if _, err := collab.UpdateQuestionStatus(state.Questions[0].ID, hostID); err != nil {
		t.Fatalf("review: %v", err)
	}
	if err := collab.CloseSession(session.ID, hostID); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := collab.ActivityFeed(session.ID, 0)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}

	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Action]++
	}
	want := map[string]int{
		models.ActionJoined:           1,
		models.ActionQuestionCreated:  1,
		models.ActionQuestionReviewed: 1,
		models.ActionSessionClosed:    1,
	}
	for action, n := range want {
		if counts[action] != n {
			t.Errorf("feed has %d %q entries, want %d", counts[action], action, n)
		}
	}

	limited, err := collab.ActivityFeed(session.ID, 2)
	if err != nil {
		t.Fatalf("limited feed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited feed has %d entries, want 2", len(limited))
	}
}
