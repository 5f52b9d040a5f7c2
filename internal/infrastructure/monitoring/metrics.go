package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/domain/shared"
)

const namespace = "holidaytable"

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	gatherer prometheus.Gatherer

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// AI gateway metrics
	aiRequestsTotal   *prometheus.CounterVec
	aiRequestDuration *prometheus.HistogramVec

	// Planner state metrics
	stateSavesTotal   *prometheus.CounterVec
	stateSaveDuration prometheus.Histogram
	stateEventsTotal  *prometheus.CounterVec
	chatMessagesTotal *prometheus.CounterVec
}

// NewMetricsCollector registers all collectors on a fresh registry
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsCollectorWithRegistry(logger, reg)
}

// NewMetricsCollectorWithRegistry registers all collectors on reg
func NewMetricsCollectorWithRegistry(logger *zap.Logger, reg *prometheus.Registry) *MetricsCollector {
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		gatherer: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		aiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_requests_total",
				Help:      "Total number of AI gateway calls",
			},
			[]string{"operation", "provider", "status"},
		),
		aiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ai_request_duration_seconds",
				Help:      "AI gateway call duration in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"operation", "provider"},
		),
		stateSavesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_saves_total",
				Help:      "Persisted state writes by outcome",
			},
			[]string{"status"},
		),
		stateSaveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "state_save_duration_seconds",
				Help:      "Duration of persisted state writes",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
		),
		stateEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_events_total",
				Help:      "Planner domain events by name",
			},
			[]string{"event"},
		),
		chatMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_messages_total",
				Help:      "Chat turns by outcome",
			},
			[]string{"status"},
		),
	}
}

// AIRequest records one AI gateway call
func (m *MetricsCollector) AIRequest(operation, provider, status string, duration time.Duration) {
	m.aiRequestsTotal.WithLabelValues(operation, provider, status).Inc()
	m.aiRequestDuration.WithLabelValues(operation, provider).Observe(duration.Seconds())
}

// StateSaved records one write of the planner state
func (m *MetricsCollector) StateSaved(err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stateSavesTotal.WithLabelValues(status).Inc()
	m.stateSaveDuration.Observe(duration.Seconds())
}

// ChatTurn records a finished chat exchange
func (m *MetricsCollector) ChatTurn(failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	m.chatMessagesTotal.WithLabelValues(status).Inc()
}

// HandleEvent counts planner domain events; subscribe it to the dispatcher
func (m *MetricsCollector) HandleEvent(event shared.DomainEvent) {
	m.stateEventsTotal.WithLabelValues(event.EventName()).Inc()
}

// Middleware records HTTP metrics for chi routes
func (m *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.observeHTTP(r.Method, route, status, time.Since(start))
	})
}

// HTTPMiddleware records HTTP metrics for gin routes
func (m *MetricsCollector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.observeHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func (m *MetricsCollector) observeHTTP(method, route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
