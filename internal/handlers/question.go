package handlers

import (
	"net/http"
	"strconv"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/services"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/store"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	collab *services.CollabService
	store  *store.Client
	auth   *services.AuthService
}

func NewQuestionHandler(collab *services.CollabService, st *store.Client, auth *services.AuthService) *QuestionHandler {
	return &QuestionHandler{collab: collab, store: st, auth: auth}
}

// AddQuestion godoc
// @Summary      Add a draft question
// @Description  Any joined participant may add a draft; validation runs before any write
// @Tags         questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Param        request body services.DraftInput true "Question content"
// @Success      201 {object} services.SessionState
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/questions [post]
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req services.DraftInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	state, err := h.collab.AddQuestion(sessionID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, state)
}

// ListSessionQuestions godoc
// @Summary      List a session's draft questions
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {array} models.DraftQuestion
// @Router       /api/v1/sessions/{id}/questions [get]
func (h *QuestionHandler) ListSessionQuestions(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	questions, err := h.collab.GetQuestions(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// UpdateQuestion godoc
// @Summary      Edit a draft question
// @Description  Whole-record update, only while the draft is unreviewed
// @Tags         questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Draft question ID"
// @Param        request body services.DraftInput true "Question content"
// @Success      200 {object} models.DraftQuestion
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/drafts/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	userID := c.GetUint("user_id")
	draftID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	var req services.DraftInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	draft, serr := h.collab.UpdateQuestion(uint(draftID), userID, req)
	if serr != nil {
		respondError(c, serr)
		return
	}

	c.JSON(http.StatusOK, draft)
}

// ReviewQuestion godoc
// @Summary      Mark a draft as reviewed
// @Description  Host only; reviewing a non-draft question is rejected
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Draft question ID"
// @Success      200 {object} models.DraftQuestion
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/drafts/{id}/review [post]
func (h *QuestionHandler) ReviewQuestion(c *gin.Context) {
	userID := c.GetUint("user_id")
	draftID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	draft, serr := h.collab.UpdateQuestionStatus(uint(draftID), userID)
	if serr != nil {
		respondError(c, serr)
		return
	}

	c.JSON(http.StatusOK, draft)
}

// ListQuestions godoc
// @Summary      List permanent questions
// @Description  The caller's own questions plus university-visible ones
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Param        subject query string false "Filter by subject"
// @Success      200 {array} models.Question
// @Router       /api/v1/questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	userID := c.GetUint("user_id")

	user, err := h.auth.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	questions, err := h.store.ListQuestions(userID, c.Query("subject"), user.University)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// GetQuestion godoc
// @Summary      Get a permanent question
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Success      200 {object} models.Question
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	question, err := h.store.GetQuestion(uint(questionID))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "question not found"})
		return
	}

	c.JSON(http.StatusOK, question)
}
