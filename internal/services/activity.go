package services

import (
	"log"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/models"
)

// ActivityService appends audit entries for notable session events. Appends
// are fire-and-forget: a failed append never fails the operation that
// triggered it.
type ActivityService struct {
	store Store
}

func NewActivityService(store Store) *ActivityService {
	return &ActivityService{store: store}
}

func (s *ActivityService) Record(sessionID, userID uint, action string, refID *uint, detail string) {
	entry := models.ActivityEntry{
		SessionID: sessionID,
		UserID:    userID,
		Action:    action,
		RefID:     refID,
		Detail:    detail,
	}
	if err := s.store.AppendActivity(&entry); err != nil {
		log.Printf("activity: append %s for session %d failed: %v", action, sessionID, err)
	}
}

// Feed returns the newest entries first for display.
func (s *ActivityService) Feed(sessionID uint, limit int) ([]models.ActivityEntry, error) {
	entries, err := s.store.ListActivity(sessionID, limit)
	if err != nil {
		return nil, transient(err, "could not load activity feed")
	}
	return entries, nil
}
