package monitoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/domain/planner"
)

func TestMetricsCollector_Records(t *testing.T) {
	m := NewMetricsCollectorWithRegistry(zap.NewNop(), prometheus.NewRegistry())

	m.AIRequest("generate_recipe", "gemini", "ok", 2*time.Second)
	m.AIRequest("generate_recipe", "gemini", "error", time.Second)
	m.StateSaved(nil, time.Millisecond)
	m.StateSaved(errors.New("disk full"), time.Millisecond)
	m.HandleEvent(planner.DishAddedEvent{DishID: "d1", AddedAt: time.Now()})
	m.ChatTurn(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.aiRequestsTotal.WithLabelValues("generate_recipe", "gemini", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stateSavesTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stateEventsTotal.WithLabelValues("menu.dish_added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatMessagesTotal.WithLabelValues("ok")))
}

func TestMetricsCollector_ChiMiddlewareUsesRoutePattern(t *testing.T) {
	m := NewMetricsCollectorWithRegistry(zap.NewNop(), prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/menu/dishes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/menu/dishes/abc", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `holidaytable_http_requests_total{method="GET",route="/menu/dishes/{id}",status_code="204"} 1`), body)
}

func TestNewTracingProvider_DisabledWithoutEndpoint(t *testing.T) {
	tp, err := NewTracingProvider(context.Background(), TracingConfig{ServiceName: "planner"}, zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}
