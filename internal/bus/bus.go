// Package bus is an in-process stand-in for the record store's change feed.
// Services publish an event after every confirmed write; subscribers react by
// refetching the affected collection wholesale.
package bus

import "sync"

const (
	CollectionSessions     = "sessions"
	CollectionParticipants = "participants"
	CollectionDrafts       = "draft_questions"
)

const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Event describes a change to one collection scoped to one session.
type Event struct {
	SessionID  uint
	Collection string
	Op         string
}

type subscription struct {
	mu     sync.Mutex
	fn     func(Event)
	closed bool
}

// deliver invokes the callback unless the subscription was cancelled. Holding
// the subscription lock for the duration guarantees no callback runs after
// Cancel returns.
func (s *subscription) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(ev)
}

func (s *subscription) cancel() {
	s.mu.Lock()
	s.closed = true
	s.fn = nil
	s.mu.Unlock()
}

type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[uint]map[int]*subscription
}

func New() *Bus {
	return &Bus{subs: make(map[uint]map[int]*subscription)}
}

// Subscribe registers a callback for events scoped to sessionID. The returned
// cancel func is idempotent; after it returns, the callback will not fire again.
func (b *Bus) Subscribe(sessionID uint, fn func(Event)) (cancel func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[int]*subscription)
	}
	sub := &subscription{fn: fn}
	b.subs[sessionID][id] = sub
	b.mu.Unlock()

	return func() {
		sub.cancel()
		b.mu.Lock()
		if m, ok := b.subs[sessionID]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(b.subs, sessionID)
			}
		}
		b.mu.Unlock()
	}
}

// Publish delivers the event to all live subscribers of its session.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	targets := make([]*subscription, 0, len(b.subs[ev.SessionID]))
	for _, sub := range b.subs[ev.SessionID] {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		sub.deliver(ev)
	}
}
