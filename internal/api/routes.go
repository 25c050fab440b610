package api

import (
	"alcyxob/workout-tracker/internal/metrics"
	"alcyxob/workout-tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles the collaborators the HTTP surface needs.
type Services struct {
	Auth      service.AuthService
	Sessions  service.SessionService
	Templates service.TemplateService
	Analytics service.AnalyticsService
	Export    service.ExportService
}

// NewRouter builds the gin engine with logging, recovery and, when enabled,
// Prometheus instrumentation.
func NewRouter(services Services, metricsEnabled bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())
	if metricsEnabled {
		router.Use(metrics.Middleware())
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	SetupRoutes(router, services)
	return router
}

func SetupRoutes(router *gin.Engine, services Services) {
	authHandler := NewAuthHandler(services.Auth)
	sessionHandler := NewSessionHandler(services.Sessions)
	templateHandler := NewTemplateHandler(services.Templates)
	analyticsHandler := NewAnalyticsHandler(services.Analytics, services.Export)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(services.Auth))
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, ok := currentUser(c)
			if !ok {
				return
			}
			c.JSON(http.StatusOK, gin.H{"user_id": userID})
		})

		// --- Active Session ---
		active := protected.Group("/active-session")
		{
			active.POST("", sessionHandler.StartSession)
			active.GET("", sessionHandler.GetActiveSession)
			active.GET("/full", sessionHandler.GetActiveSessionFull)
			active.POST("/finish", sessionHandler.FinishSession)
			active.POST("/save-as-template", templateHandler.SaveActiveSession)
			active.POST("/exercises", sessionHandler.AddExercise)
			active.DELETE("/exercises/:exerciseId", sessionHandler.DeleteExercise)
			active.POST("/exercises/:exerciseId/sets", sessionHandler.AddSet)
			active.PATCH("/exercises/:exerciseId/sets/:setId", sessionHandler.UpdateSet)
			active.DELETE("/exercises/:exerciseId/sets/:setId", sessionHandler.DeleteSet)
		}

		// --- Sessions (any state) ---
		sessions := protected.Group("/sessions")
		{
			sessions.DELETE("", sessionHandler.PurgeAllWorkouts)
			sessions.GET("/:sessionId", sessionHandler.GetSession)
			sessions.DELETE("/:sessionId", sessionHandler.DeleteSession)
		}

		// --- Templates ---
		templates := protected.Group("/templates")
		{
			templates.GET("", templateHandler.ListTemplates)
			templates.POST("", templateHandler.CreateTemplate)
			templates.GET("/:templateId", templateHandler.GetTemplate)
			templates.PATCH("/:templateId", templateHandler.UpdateTemplate)
			templates.DELETE("/:templateId", templateHandler.DeleteTemplate)
			templates.POST("/:templateId/exercises", templateHandler.AddExercise)
			templates.POST("/:templateId/start", sessionHandler.StartFromTemplate)
		}

		// --- Analytics ---
		analytics := protected.Group("/analytics")
		{
			analytics.GET("/weekly-review", analyticsHandler.WeeklyReview)
			analytics.GET("/volume-7d", analyticsHandler.VolumeLast7Days)
			analytics.GET("/personal-bests", analyticsHandler.PersonalBests)
			analytics.GET("/timeline", analyticsHandler.TimelineByName)
			analytics.GET("/calendar", analyticsHandler.Calendar)
			analytics.GET("/history", analyticsHandler.History)
			analytics.POST("/history/export", analyticsHandler.ExportHistory)
			analytics.GET("/exercises", analyticsHandler.ListExercises)
			analytics.GET("/exercises/:exerciseId/timeline", analyticsHandler.ExerciseTimeline)
			analytics.GET("/exercises/:exerciseId/weekly-max", analyticsHandler.ExerciseWeeklyMax)
			analytics.GET("/exercises/:exerciseId/weekly-volume", analyticsHandler.ExerciseWeeklyVolume)
			analytics.DELETE("/exercise-history", analyticsHandler.PurgeExerciseHistory)
		}
	}
}
