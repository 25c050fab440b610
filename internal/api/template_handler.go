package api

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// TemplateHandler exposes the template catalog.
type TemplateHandler struct {
	templateService service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templates, err := h.templateService.ListTemplates(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	tree, err := h.templateService.GetTemplate(c.Request.Context(), userID, templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.CreateTemplateInput
	if !bindJSON(c, &req) {
		return
	}
	template, err := h.templateService.CreateTemplate(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

// UpdateTemplate handles PATCH /templates/:templateId. Sending "exercises"
// replaces the template's whole exercise list.
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	var req domain.UpdateTemplateInput
	if !bindJSON(c, &req) {
		return
	}
	tree, err := h.templateService.UpdateTemplate(c.Request.Context(), userID, templateID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	if err := h.templateService.DeleteTemplate(c.Request.Context(), userID, templateID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TemplateHandler) AddExercise(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	var req domain.AddTemplateExerciseInput
	if !bindJSON(c, &req) {
		return
	}
	exercise, err := h.templateService.AddExerciseToTemplate(c.Request.Context(), userID, templateID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exercise)
}

// SaveActiveSession handles POST /active-session/save-as-template.
func (h *TemplateHandler) SaveActiveSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req domain.TemplateFromSessionInput
	if !bindJSON(c, &req) {
		return
	}
	tree, err := h.templateService.CreateTemplateFromActiveSession(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tree)
}
