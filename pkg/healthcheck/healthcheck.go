// Package healthcheck reports whether the planner's dependencies (the state
// store and the AI provider) are usable. Results are cached briefly so
// probes from an orchestrator do not hammer the provider.
package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// severity orders statuses so the worst one can be picked with max.
func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Check is the outcome of a single dependency probe.
type Check struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"-"`
	Metadata    interface{}   `json:"metadata,omitempty"`
}

// Response aggregates every registered probe. Status is the worst of them.
type Response struct {
	Status        Status        `json:"status"`
	Version       string        `json:"version"`
	Timestamp     time.Time     `json:"timestamp"`
	Checks        []Check       `json:"checks"`
	TotalDuration time.Duration `json:"-"`
}

type Checker interface {
	Check(ctx context.Context) Check
}

// Pinger is satisfied by the persistence store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthCheck struct {
	version string
	logger  *zap.Logger
	timeout time.Duration

	mu       sync.RWMutex
	checkers map[string]Checker
	ttl      time.Duration
	last     *Response
}

func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:  version,
		logger:   logger.Named("healthcheck"),
		timeout:  10 * time.Second,
		checkers: map[string]Checker{},
		ttl:      5 * time.Second,
	}
}

// Register adds or replaces a named probe and drops the cached response.
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	h.checkers[name] = checker
	h.last = nil
	h.mu.Unlock()
}

// SetCacheTTL controls how long a response is reused. Zero disables caching.
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	h.ttl = ttl
	h.mu.Unlock()
}

func (h *HealthCheck) cached() (Response, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil || time.Since(h.last.Timestamp) >= h.ttl {
		return Response{}, false
	}
	return *h.last, true
}

// Check runs every probe concurrently, or returns the cached response.
func (h *HealthCheck) Check(ctx context.Context) Response {
	if resp, ok := h.cached(); ok {
		return resp
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	probes := make([]Checker, len(names))
	sort.Strings(names)
	for i, name := range names {
		probes[i] = h.checkers[name]
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	started := time.Now()
	results := make([]Check, len(probes))
	var wg sync.WaitGroup
	wg.Add(len(probes))
	for i := range probes {
		go func(i int) {
			defer wg.Done()
			results[i] = probes[i].Check(ctx)
			results[i].Name = names[i]
		}(i)
	}
	wg.Wait()

	resp := Response{
		Status:    StatusHealthy,
		Version:   h.version,
		Timestamp: started,
		Checks:    results,
	}
	for _, c := range results {
		if c.Status.severity() > resp.Status.severity() {
			resp.Status = c.Status
		}
		if c.Status == StatusUnhealthy {
			h.logger.Warn("Dependency unhealthy",
				zap.String("check", c.Name),
				zap.String("message", c.Message))
		}
	}
	resp.TotalDuration = time.Since(started)

	h.mu.Lock()
	h.last = &resp
	h.mu.Unlock()
	return resp
}

// Handler serves the full report. Only an unhealthy dependency yields 503.
func (h *HealthCheck) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := h.Check(c.Request.Context())
		c.JSON(httpStatus(resp.Status), resp)
	}
}

// ReadinessHandler treats degraded as ready: without AI the planner still
// edits and persists state.
func (h *HealthCheck) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := h.Check(c.Request.Context())
		if resp.Status == StatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"checks": resp.Checks,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": resp.Timestamp})
	}
}

func (h *HealthCheck) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "timestamp": time.Now()})
	}
}

func httpStatus(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// PingChecker marks a backend unhealthy when Ping returns an error.
type PingChecker struct {
	pinger   Pinger
	metadata interface{}
}

func NewPingChecker(pinger Pinger, metadata interface{}) *PingChecker {
	return &PingChecker{pinger: pinger, metadata: metadata}
}

func (p *PingChecker) Check(ctx context.Context) Check {
	return timed(func() (Status, string, interface{}) {
		if err := p.pinger.Ping(ctx); err != nil {
			return StatusUnhealthy, err.Error(), p.metadata
		}
		return StatusHealthy, "", p.metadata
	})
}

// CustomChecker wraps a probe function.
type CustomChecker struct {
	name  string
	probe func(ctx context.Context) (Status, string, interface{})
}

func NewCustomChecker(name string, probe func(ctx context.Context) (Status, string, interface{})) *CustomChecker {
	return &CustomChecker{name: name, probe: probe}
}

func (c *CustomChecker) Check(ctx context.Context) Check {
	check := timed(func() (Status, string, interface{}) { return c.probe(ctx) })
	check.Name = c.name
	return check
}

func timed(probe func() (Status, string, interface{})) Check {
	start := time.Now()
	status, message, metadata := probe()
	return Check{
		Status:      status,
		Message:     message,
		Metadata:    metadata,
		LastChecked: start,
		Duration:    time.Since(start),
	}
}

type checkJSON Check

func (c Check) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		checkJSON
		DurationMS int64 `json:"duration_ms"`
	}{checkJSON(c), c.Duration.Milliseconds()})
}

type responseJSON Response

func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		responseJSON
		TotalDurationMS int64 `json:"total_duration_ms"`
	}{responseJSON(r), r.TotalDuration.Milliseconds()})
}
