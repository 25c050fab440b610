package api

import (
	"alcyxob/workout-tracker/internal/service"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler exposes the analytics engine and history export.
type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	exportService    service.ExportService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService service.AnalyticsService, exportService service.ExportService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, exportService: exportService}
}

func (h *AnalyticsHandler) WeeklyReview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	review, err := h.analyticsService.WeeklyReview(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *AnalyticsHandler) VolumeLast7Days(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	volumes, err := h.analyticsService.VolumeLast7Days(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, volumes)
}

func (h *AnalyticsHandler) PersonalBests(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bests, err := h.analyticsService.PersonalBests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bests)
}

// TimelineByName handles GET /analytics/timeline?name=.
func (h *AnalyticsHandler) TimelineByName(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	name := c.Query("name")
	if name == "" {
		abortWithError(c, http.StatusBadRequest, "name is required")
		return
	}
	timeline, err := h.analyticsService.ExerciseTimelineByName(c.Request.Context(), userID, name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, timeline)
}

func (h *AnalyticsHandler) ListExercises(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	refs, err := h.analyticsService.ListDistinctExercises(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refs)
}

func (h *AnalyticsHandler) ExerciseTimeline(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	timeline, err := h.analyticsService.ExerciseTimeline(c.Request.Context(), userID, exerciseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, timeline)
}

func (h *AnalyticsHandler) ExerciseWeeklyMax(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	points, err := h.analyticsService.ExerciseWeeklyMax(c.Request.Context(), userID, exerciseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *AnalyticsHandler) ExerciseWeeklyVolume(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	points, err := h.analyticsService.ExerciseWeeklyVolume(c.Request.Context(), userID, exerciseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// Calendar handles GET /analytics/calendar?year=&month=, defaulting to the
// current UTC month.
func (h *AnalyticsHandler) Calendar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	now := time.Now().UTC()
	year, ok := queryInt(c, "year", now.Year())
	if !ok {
		return
	}
	month, ok := queryInt(c, "month", int(now.Month()))
	if !ok {
		return
	}
	days, err := h.analyticsService.CalendarMonth(c.Request.Context(), userID, year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "days": days})
}

// History handles GET /analytics/history?limit=&offset=&date=YYYY-MM-DD.
func (h *AnalyticsHandler) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", service.DefaultHistoryLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	items, err := h.analyticsService.History(c.Request.Context(), userID, limit, offset, c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// PurgeExerciseHistory handles DELETE /analytics/exercise-history?name=.
func (h *AnalyticsHandler) PurgeExerciseHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := h.analyticsService.PurgeExerciseHistory(c.Request.Context(), userID, c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AnalyticsHandler) ExportHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	export, err := h.exportService.ExportHistory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, export)
}

func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return v, true
}
