package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/presence"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/services"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub      *ws.Hub
	collab   *services.CollabService
	auth     *services.AuthService
	presence *presence.Tracker
}

func NewWSHandler(hub *ws.Hub, collab *services.CollabService, auth *services.AuthService, tracker *presence.Tracker) *WSHandler {
	return &WSHandler{hub: hub, collab: collab, auth: auth, presence: tracker}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// PresenceInfo is one peer's liveness as rendered for display. An empty
// label means the peer is not active and the UI falls back to the join time.
type PresenceInfo struct {
	UserID    uint   `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
	Label     string `json:"label,omitempty"`
}

func presenceInfos(beacons []presence.Beacon) []PresenceInfo {
	now := time.Now()
	infos := make([]PresenceInfo, len(beacons))
	for i, b := range beacons {
		infos[i] = PresenceInfo{
			UserID:    b.UserID,
			Timestamp: b.Timestamp,
			Label:     presence.Classify(time.Unix(b.Timestamp, 0), now),
		}
	}
	return infos
}

// HandleSessionSocket godoc
// @Summary      WebSocket for live session state and presence
// @Description  Streams server-confirmed session state on every change plus presence updates
// @Tags         websocket
// @Param        id path int true "Session ID"
// @Param        token query string true "JWT"
// @Router       /ws/session/{id} [get]
func (h *WSHandler) HandleSessionSocket(c *gin.Context) {
	sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session id"})
		return
	}

	userID, err := h.auth.ValidateToken(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	sid := uint(sessionID)
	client := h.hub.Register(sid, conn)
	defer h.hub.Unregister(sid, client)

	watcher, err := h.collab.SubscribeToSession(sid, userID, func(state *services.SessionState) {
		if err := client.Send(ws.WSMessage{Type: ws.TypeState, Data: state}); err != nil {
			log.Printf("ws: state push to user %d failed: %v", userID, err)
		}
	})
	if err != nil {
		client.Send(ws.WSMessage{Type: ws.TypeError, Data: err.Error()})
		return
	}
	defer watcher.Stop()

	state := watcher.State()
	if err := client.Send(ws.WSMessage{Type: ws.TypeState, Data: &state}); err != nil {
		return
	}

	// Presence failures degrade to a warning; session state still streams.
	tracking, err := h.presence.StartTracking(c.Request.Context(), sid, userID, func(beacons []presence.Beacon) {
		if err := client.Send(ws.WSMessage{Type: ws.TypePresence, Data: presenceInfos(beacons)}); err != nil {
			log.Printf("ws: presence push to user %d failed: %v", userID, err)
		}
	})
	if err != nil {
		log.Printf("ws: presence unavailable for session %d: %v", sid, err)
		client.Send(ws.WSMessage{Type: ws.TypeError, Data: "presence temporarily unavailable"})
	} else {
		defer tracking.Stop()
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
