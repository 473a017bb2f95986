package handlers

import (
	"net/http"
	"strconv"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/services"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	collab *services.CollabService
}

func NewSessionHandler(collab *services.CollabService) *SessionHandler {
	return &SessionHandler{collab: collab}
}

func sessionIDParam(c *gin.Context) (uint, bool) {
	sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session id"})
		return 0, false
	}
	return uint(sessionID), true
}

// CreateSession godoc
// @Summary      Create a drafting session
// @Description  Open a new collaborative session with the caller as host
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.SessionInput true "Session data"
// @Success      201 {object} services.SessionState
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req services.SessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.collab.CreateSession(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	state, err := h.collab.GetSession(session.ID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, state)
}

// ListSessions godoc
// @Summary      List open sessions
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.Session
// @Router       /api/v1/sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.collab.ListSessions()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetSession godoc
// @Summary      Get session state
// @Description  Session record plus participants, questions and the caller's role
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.SessionState
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	state, err := h.collab.GetSession(sessionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// JoinSession godoc
// @Summary      Join a session
// @Description  Idempotent; joining twice succeeds without a second membership
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.SessionState
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/join [post]
func (h *SessionHandler) JoinSession(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	state, err := h.collab.JoinSession(sessionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// GetParticipants godoc
// @Summary      List session participants
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {array} models.SessionParticipant
// @Router       /api/v1/sessions/{id}/participants [get]
func (h *SessionHandler) GetParticipants(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	participants, err := h.collab.GetParticipants(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, participants)
}

// PublishQuestions godoc
// @Summary      Publish reviewed questions
// @Description  Copies all reviewed drafts into the permanent question bank
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.PublishResult
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/publish [post]
func (h *SessionHandler) PublishQuestions(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	result, err := h.collab.PublishQuestions(c.Request.Context(), sessionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CloseSession godoc
// @Summary      Close a session
// @Description  Closed sessions accept no new joins but stay readable
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/close [post]
func (h *SessionHandler) CloseSession(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	if err := h.collab.CloseSession(sessionID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "session closed"})
}

// ReopenSession godoc
// @Summary      Reopen a closed session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/reopen [post]
func (h *SessionHandler) ReopenSession(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	if err := h.collab.ReopenSession(sessionID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "session reopened"})
}

// ActivityFeed godoc
// @Summary      Session activity feed
// @Description  Newest entries first
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Param        limit query int false "Max entries (default 50)"
// @Success      200 {array} models.ActivityEntry
// @Router       /api/v1/sessions/{id}/activity [get]
func (h *SessionHandler) ActivityFeed(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	limit := 50
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && v > 0 {
		limit = v
	}

	entries, err := h.collab.ActivityFeed(sessionID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
