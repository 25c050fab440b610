package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkoutCounters(t *testing.T) {
	blank := testutil.ToFloat64(sessionsStarted.WithLabelValues(SourceBlank))
	fromTemplate := testutil.ToFloat64(sessionsStarted.WithLabelValues(SourceTemplate))
	finished := testutil.ToFloat64(sessionsFinished)
	sets := testutil.ToFloat64(setsLogged)
	replaced := testutil.ToFloat64(templateReplacements)

	RecordSessionStarted(SourceBlank)
	RecordSessionStarted(SourceTemplate)
	RecordSessionStarted(SourceTemplate)
	RecordSessionFinished()
	RecordSetLogged()
	RecordTemplateReplaced()

	assert.Equal(t, blank+1, testutil.ToFloat64(sessionsStarted.WithLabelValues(SourceBlank)))
	assert.Equal(t, fromTemplate+2, testutil.ToFloat64(sessionsStarted.WithLabelValues(SourceTemplate)))
	assert.Equal(t, finished+1, testutil.ToFloat64(sessionsFinished))
	assert.Equal(t, sets+1, testutil.ToFloat64(setsLogged))
	assert.Equal(t, replaced+1, testutil.ToFloat64(templateReplacements))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/sessions/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", gin.WrapH(Handler()))

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/sessions/:id", "204"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/42", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/sessions/:id", "204")))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "workout_http_requests_total"))
}
