// Package presence advertises liveness on a per-session Redis channel and
// aggregates peer beacons into an active-user set. Beacons are ephemeral:
// nothing is persisted, and absence of refresh is the only departure signal.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// BeaconInterval is how often a tracked client re-broadcasts.
	BeaconInterval = 30 * time.Second

	activeNowWindow = 2 * time.Minute
	minutesWindow   = time.Hour
	hoursWindow     = 24 * time.Hour
)

// Beacon is the liveness blob broadcast on the session channel.
type Beacon struct {
	UserID    uint  `json:"user_id"`
	Timestamp int64 `json:"timestamp"`
}

type Tracker struct {
	client *redis.Client
}

func NewTracker(addr, password string, db int) *Tracker {
	return &Tracker{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func channelName(sessionID uint) string {
	return fmt.Sprintf("room_%d", sessionID)
}

// Tracking is one client's live subscription to a session channel. All
// teardown handles are owned here, in the scope that created them, so Stop
// always reaches them no matter when the subscribe callback resolved.
type Tracking struct {
	tracker   *Tracker
	sessionID uint
	userID    uint
	onChange  func([]Beacon)

	pubsub   *redis.PubSub
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	peers    map[uint]Beacon
	tracking bool
}

// StartTracking subscribes to the session channel, broadcasts an immediate
// beacon once the subscription is confirmed, and re-broadcasts every
// BeaconInterval. onChange receives the rebuilt peer set after every received
// beacon. Failures to subscribe are returned so the caller can show a
// transient connectivity warning; retry is the caller's resubscribe path, not
// automatic backoff here.
func (t *Tracker) StartTracking(ctx context.Context, sessionID, userID uint, onChange func([]Beacon)) (*Tracking, error) {
	pubsub := t.client.Subscribe(ctx, channelName(sessionID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to session %d presence: %w", sessionID, err)
	}

	tr := &Tracking{
		tracker:   t,
		sessionID: sessionID,
		userID:    userID,
		onChange:  onChange,
		pubsub:    pubsub,
		ticker:    time.NewTicker(BeaconInterval),
		done:      make(chan struct{}),
		peers:     make(map[uint]Beacon),
		tracking:  true,
	}

	tr.broadcast(ctx)
	go tr.loop(ctx)
	return tr, nil
}

func (tr *Tracking) loop(ctx context.Context) {
	ch := tr.pubsub.Channel()
	for {
		select {
		case <-tr.done:
			return
		case <-tr.ticker.C:
			tr.broadcast(ctx)
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var beacon Beacon
			if err := json.Unmarshal([]byte(msg.Payload), &beacon); err != nil {
				log.Printf("presence: malformed beacon on %s: %v", msg.Channel, err)
				continue
			}
			tr.merge(beacon)
		}
	}
}

func (tr *Tracking) broadcast(ctx context.Context) {
	beacon := Beacon{UserID: tr.userID, Timestamp: time.Now().Unix()}
	payload, err := json.Marshal(beacon)
	if err != nil {
		return
	}
	// A failed broadcast is not retried mid-interval; the next tick covers it.
	if err := tr.tracker.client.Publish(ctx, channelName(tr.sessionID), payload).Err(); err != nil {
		log.Printf("presence: broadcast for session %d failed: %v", tr.sessionID, err)
	}
}

func (tr *Tracking) merge(beacon Beacon) {
	tr.mu.Lock()
	existing, ok := tr.peers[beacon.UserID]
	if !ok || beacon.Timestamp > existing.Timestamp {
		tr.peers[beacon.UserID] = beacon
	}
	snapshot := tr.activeLocked()
	tr.mu.Unlock()

	if tr.onChange != nil {
		tr.onChange(snapshot)
	}
}

// Active returns the current peer beacons, freshest per user.
func (tr *Tracking) Active() []Beacon {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.activeLocked()
}

func (tr *Tracking) activeLocked() []Beacon {
	beacons := make([]Beacon, 0, len(tr.peers))
	for _, b := range tr.peers {
		beacons = append(beacons, b)
	}
	return beacons
}

// IsTracking reports whether the beacon loop is still running.
func (tr *Tracking) IsTracking() bool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.tracking
}

// Stop halts the beacon interval and unsubscribes, exactly once.
func (tr *Tracking) Stop() {
	tr.stopOnce.Do(func() {
		tr.ticker.Stop()
		close(tr.done)
		if err := tr.pubsub.Close(); err != nil {
			log.Printf("presence: unsubscribe for session %d failed: %v", tr.sessionID, err)
		}
		tr.mu.Lock()
		tr.tracking = false
		tr.mu.Unlock()
	})
}

// Rebuild collapses a raw beacon list (possibly several per user across tabs
// and reconnects) into the freshest beacon per user.
func Rebuild(raw []Beacon) map[uint]Beacon {
	peers := make(map[uint]Beacon, len(raw))
	for _, b := range raw {
		if existing, ok := peers[b.UserID]; !ok || b.Timestamp > existing.Timestamp {
			peers[b.UserID] = b
		}
	}
	return peers
}

// Classify renders a beacon age for display. An empty string means the
// beacon is too old for active styling and the caller should fall back to
// the recorded join time.
func Classify(beaconAt, now time.Time) string {
	age := now.Sub(beaconAt)
	switch {
	case age < activeNowWindow:
		return "active now"
	case age < minutesWindow:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < hoursWindow:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return ""
	}
}
