package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopline/backend/internal/interfaces/http/dto"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness along with the state of each dependency
type HealthHandler struct {
	BaseHandler
	version   string
	startTime time.Time
	checks    map[string]HealthCheck
}

// NewHealthHandler creates a health handler running the given checks
func NewHealthHandler(version string, checks map[string]HealthCheck, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: newBaseHandler(logger),
		version:     version,
		startTime:   time.Now(),
		checks:      checks,
	}
}

// Health godoc
// @ID           health
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.HealthResponse
// @Failure      503 {object} dto.HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := dto.HealthResponse{
		Status:  "ok",
		Checks:  make(map[string]string, len(names)),
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
