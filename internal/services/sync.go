package services

import (
	"errors"
	"log"
	"sync"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/bus"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/models"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/store"
)

// SessionState is the server-confirmed projection of one session as seen by
// one caller: the session record, its participants and draft questions, and
// the caller's membership and role.
type SessionState struct {
	Session      *models.Session             `json:"session"`
	Participants []models.SessionParticipant `json:"participants"`
	Questions    []models.DraftQuestion      `json:"questions"`
	HasJoined    bool                        `json:"has_joined"`
	IsHost       bool                        `json:"is_host"`
}

// SyncService builds and keeps current SessionState projections.
type SyncService struct {
	store Store
	bus   *bus.Bus
}

func NewSyncService(st Store, b *bus.Bus) *SyncService {
	return &SyncService{store: st, bus: b}
}

// Load fetches the latest durable state for (sessionID, userID). It is
// idempotent and has no side effects.
//
// The creator counts as joined host without any participant-table read. The
// participant-existence check is allowed to fail and degrades to "not
// joined". Participant and question lists are fetched independently once
// membership is established; each failed list degrades to empty rather than
// failing the load.
func (s *SyncService) Load(sessionID, userID uint) (*SessionState, error) {
	if sessionID == 0 {
		return nil, invalid("session id is required")
	}
	if userID == 0 {
		return nil, invalid("user id is required")
	}

	session, err := s.store.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("session %d not found", sessionID)
		}
		return nil, transient(err, "could not load session %d", sessionID)
	}

	state := &SessionState{
		Session:      session,
		Participants: []models.SessionParticipant{},
		Questions:    []models.DraftQuestion{},
	}

	isCreator := session.CreatorID == userID
	state.HasJoined = isCreator
	state.IsHost = isCreator

	if !isCreator {
		participant, err := s.store.GetParticipant(sessionID, userID)
		switch {
		case err == nil:
			state.HasJoined = true
			state.IsHost = participant.Role == models.RoleHost
		case errors.Is(err, store.ErrNotFound):
			// not joined
		default:
			log.Printf("sync: participant check for (%d,%d) failed, treating as not joined: %v",
				sessionID, userID, err)
		}
	}

	if !state.HasJoined {
		return state, nil
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		participants, err := s.store.ListParticipants(sessionID)
		if err != nil {
			log.Printf("sync: participants for session %d unavailable: %v", sessionID, err)
			return
		}
		state.Participants = participants
	}()
	go func() {
		defer wg.Done()
		questions, err := s.store.ListDrafts(sessionID)
		if err != nil {
			log.Printf("sync: drafts for session %d unavailable: %v", sessionID, err)
			return
		}
		state.Questions = questions
	}()
	wg.Wait()

	return state, nil
}

// Watcher keeps one SessionState current by refetching the affected
// collection wholesale on every change event. The previous known-good
// collection stays in place when a refresh fails.
type Watcher struct {
	svc       *SyncService
	sessionID uint
	userID    uint
	onUpdate  func(*SessionState)

	mu       sync.Mutex
	state    *SessionState
	closed   bool
	cancel   func()
	stopOnce sync.Once
}

// Watch loads the initial state and subscribes to change notifications for
// the session. Only joined callers may watch. Stop the returned watcher when
// the caller navigates away; no update callback fires afterwards.
func (s *SyncService) Watch(sessionID, userID uint, onUpdate func(*SessionState)) (*Watcher, error) {
	state, err := s.Load(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !state.HasJoined {
		return nil, denied("join the session before subscribing to it")
	}

	w := &Watcher{
		svc:       s,
		sessionID: sessionID,
		userID:    userID,
		onUpdate:  onUpdate,
		state:     state,
	}
	w.cancel = s.bus.Subscribe(sessionID, w.handleEvent)
	return w, nil
}

// State returns a copy of the current projection.
func (w *Watcher) State() SessionState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *w.state
}

// Stop tears the subscription down exactly once. In-flight refreshes that
// complete afterwards are discarded.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
	})
}

func (w *Watcher) handleEvent(ev bus.Event) {
	switch ev.Collection {
	case bus.CollectionSessions:
		session, err := w.svc.store.GetSession(w.sessionID)
		if err != nil {
			log.Printf("sync: refresh session %d failed, keeping previous state: %v", w.sessionID, err)
			return
		}
		w.apply(func(state *SessionState) { state.Session = session })
	case bus.CollectionParticipants:
		participants, err := w.svc.store.ListParticipants(w.sessionID)
		if err != nil {
			log.Printf("sync: refresh participants for session %d failed, keeping previous state: %v", w.sessionID, err)
			return
		}
		w.apply(func(state *SessionState) { state.Participants = participants })
	case bus.CollectionDrafts:
		questions, err := w.svc.store.ListDrafts(w.sessionID)
		if err != nil {
			log.Printf("sync: refresh drafts for session %d failed, keeping previous state: %v", w.sessionID, err)
			return
		}
		w.apply(func(state *SessionState) { state.Questions = questions })
	}
}

func (w *Watcher) apply(mutate func(*SessionState)) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	next := *w.state
	mutate(&next)
	w.state = &next
	snapshot := next
	w.mu.Unlock()

	if w.onUpdate != nil {
		w.onUpdate(&snapshot)
	}
}
