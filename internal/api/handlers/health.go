// Package handlers implements HTTP handlers for the fundgrube-watcher API.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/fundgrube-watcher/internal/engine"
)

const pingTimeout = 2 * time.Second

// Pinger checks that the seen store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyResponse is the /readyz body. Checks maps each dependency to "ok" or
// the reason it failed.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	store      Pinger
	lastRun    func() *engine.RunResult
	staleAfter time.Duration
}

// HealthOption configures a HealthHandler.
type HealthOption func(*HealthHandler)

// WithLastRun makes readiness fail once the last completed run started more
// than staleAfter ago. Before the first run the check reports "pending" and
// does not fail.
func WithLastRun(lastRun func() *engine.RunResult, staleAfter time.Duration) HealthOption {
	return func(h *HealthHandler) {
		h.lastRun = lastRun
		h.staleAfter = staleAfter
	}
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(s Pinger, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{store: s}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Healthz returns 200 if the process is running.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 when every check passes, 503 otherwise.
func (h *HealthHandler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, 2)}
	ready := true

	resp.Checks["seen_store"] = "ok"
	if err := h.store.Ping(ctx); err != nil {
		resp.Checks["seen_store"] = err.Error()
		ready = false
	}

	if h.lastRun != nil {
		switch res := h.lastRun(); {
		case res == nil:
			resp.Checks["last_run"] = "pending"
		case h.staleAfter > 0 && time.Since(res.StartedAt) > h.staleAfter:
			resp.Checks["last_run"] = "stale since " + res.StartedAt.UTC().Format(time.RFC3339)
			ready = false
		default:
			resp.Checks["last_run"] = "ok"
		}
	}

	if !ready {
		resp.Status = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// RegisterHealthRoutes adds the probe endpoints to the Echo instance.
func RegisterHealthRoutes(e *echo.Echo, h *HealthHandler) {
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
}
