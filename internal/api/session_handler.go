package api

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the session engine.
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// activeResponse is the answer to "is there an active session": a missing
// session is a normal result, not an error.
type activeResponse struct {
	Active  bool        `json:"active"`
	Session interface{} `json:"session"`
}

// StartSession handles POST /active-session. The body is optional and the
// call is idempotent: an existing active session is returned unchanged.
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.StartSessionInput
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	session, err := h.sessionService.StartSession(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// StartFromTemplate handles POST /templates/:templateId/start.
func (h *SessionHandler) StartFromTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	tree, err := h.sessionService.StartFromTemplate(c.Request.Context(), userID, templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tree)
}

func (h *SessionHandler) GetActiveSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	session, err := h.sessionService.GetActiveSession(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if session == nil {
		c.JSON(http.StatusOK, activeResponse{Active: false})
		return
	}
	c.JSON(http.StatusOK, activeResponse{Active: true, Session: session})
}

func (h *SessionHandler) GetActiveSessionFull(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tree, err := h.sessionService.GetActiveSessionFull(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if tree == nil {
		c.JSON(http.StatusOK, activeResponse{Active: false})
		return
	}
	c.JSON(http.StatusOK, activeResponse{Active: true, Session: tree})
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	tree, err := h.sessionService.GetSessionByID(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (h *SessionHandler) AddExercise(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.AddExerciseInput
	if !bindJSON(c, &req) {
		return
	}
	exercise, err := h.sessionService.AddExercise(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exercise)
}

func (h *SessionHandler) DeleteExercise(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	if err := h.sessionService.DeleteExercise(c.Request.Context(), userID, exerciseID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) AddSet(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	var req domain.AddSetInput
	if !bindJSON(c, &req) {
		return
	}
	set, err := h.sessionService.AddSet(c.Request.Context(), userID, exerciseID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, set)
}

func (h *SessionHandler) UpdateSet(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	setID, ok := pathID(c, "setId")
	if !ok {
		return
	}
	var req domain.UpdateSetInput
	if !bindJSON(c, &req) {
		return
	}
	set, err := h.sessionService.UpdateSet(c.Request.Context(), userID, exerciseID, setID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *SessionHandler) DeleteSet(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	setID, ok := pathID(c, "setId")
	if !ok {
		return
	}
	if err := h.sessionService.DeleteSet(c.Request.Context(), userID, exerciseID, setID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) FinishSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	finished, err := h.sessionService.FinishSession(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, finished)
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	if err := h.sessionService.DeleteSession(c.Request.Context(), userID, sessionID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PurgeAllWorkouts handles DELETE /sessions.
func (h *SessionHandler) PurgeAllWorkouts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	deleted, err := h.sessionService.PurgeAllWorkouts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_sessions": deleted})
}
