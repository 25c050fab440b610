package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Session start sources.
const (
	SourceBlank    = "blank"
	SourceTemplate = "template"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "workout",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workout",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "workout",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	sessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workout_sessions_started_total",
			Help: "Workout sessions started, by source.",
		},
		[]string{"source"},
	)

	sessionsFinished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workout_sessions_finished_total",
			Help: "Workout sessions finished.",
		},
	)

	setsLogged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workout_sets_logged_total",
			Help: "Sets added to active sessions.",
		},
	)

	templateReplacements = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workout_template_replacements_total",
			Help: "Template exercise lists replaced wholesale.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		sessionsStarted,
		sessionsFinished,
		setsLogged,
		templateReplacements,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordSessionStarted counts a new session; source is SourceBlank or SourceTemplate.
func RecordSessionStarted(source string) {
	sessionsStarted.WithLabelValues(source).Inc()
}

func RecordSessionFinished() {
	sessionsFinished.Inc()
}

func RecordSetLogged() {
	setsLogged.Inc()
}

func RecordTemplateReplaced() {
	templateReplacements.Inc()
}
