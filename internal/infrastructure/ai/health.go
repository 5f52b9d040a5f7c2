package ai

import (
	"context"

	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/ports/outbound"
	"github.com/holidaytable/planner/pkg/healthcheck"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports whether the configured provider can serve requests
type HealthChecker struct {
	generator outbound.TextGenerator
	logger    *zap.Logger
}

// NewHealthChecker creates a new AI health checker
func NewHealthChecker(generator outbound.TextGenerator, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		generator: generator,
		logger:    logger.Named("ai-health"),
	}
}

// Check implements healthcheck.Checker. A missing credential or an
// unreachable local server degrades the service; planning still works.
func (h *HealthChecker) Check(ctx context.Context) healthcheck.Check {
	return healthcheck.NewCustomChecker("ai", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
		meta := map[string]interface{}{"provider": h.generator.Name()}

		if h.generator.RequiresCredential() && !h.generator.HasCredential() {
			return healthcheck.StatusDegraded, "API credential is not configured", meta
		}

		if p, ok := h.generator.(pinger); ok {
			if err := p.Ping(ctx); err != nil {
				h.logger.Warn("AI provider unreachable", zap.String("provider", h.generator.Name()), zap.Error(err))
				return healthcheck.StatusDegraded, err.Error(), meta
			}
		}

		return healthcheck.StatusHealthy, "", meta
	}).Check(ctx)
}
