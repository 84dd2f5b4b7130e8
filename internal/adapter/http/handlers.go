package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"loanease/internal/infrastructure/logger"
)

// HealthCheck probes one dependency for /health.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	checks []HealthCheck
}

func NewHandler(checks ...HealthCheck) *Handler { return &Handler{checks: checks} }

type healthResponse struct {
	Status     string            `json:"status"`
	Time       string            `json:"time"`
	Components map[string]string `json:"components,omitempty"`
}

// Health reports ok, or 503 "degraded" with the failing components.
func (h *Handler) Health(c echo.Context) error {
	resp := healthResponse{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339Nano)}
	code := http.StatusOK
	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		resp.Components = make(map[string]string, len(h.checks))
		for _, chk := range h.checks {
			if err := chk.Ping(ctx); err != nil {
				logger.FromContext(ctx).Warn("health check failed", zap.String("component", chk.Name), zap.Error(err))
				resp.Components[chk.Name] = err.Error()
				resp.Status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			resp.Components[chk.Name] = "ok"
		}
	}
	return c.JSON(code, resp)
}

func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "LoanEase API"})
}
