package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/internal/infrastructure/monitor"
	"github.com/fastygo/accounts/pkg/httpcontext"
)

// HealthHandler reports dependency status.
type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

// NewHealthHandler constructs a health handler backed by mon.
func NewHealthHandler(mon *monitor.Monitor, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	status := h.monitor.Check(stdCtx)
	if status.Healthy {
		h.respondJSON(ctx, http.StatusOK, status)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, status)
}
