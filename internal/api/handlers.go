package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"solana-buyback-burn/internal/domain"
)

// DashboardReader serves the dashboard read model.
type DashboardReader interface {
	Read(ctx context.Context) domain.Dashboard
}

// PublicHandler serves the public endpoints.
type PublicHandler struct {
	dashboard DashboardReader
}

// NewPublicHandler creates a PublicHandler.
func NewPublicHandler(dashboard DashboardReader) *PublicHandler {
	return &PublicHandler{dashboard: dashboard}
}

// Dashboard handles GET /dashboard. It always answers 200; upstream failures
// surface as stale values.
func (h *PublicHandler) Dashboard(c *gin.Context) {
	d := h.dashboard.Read(c.Request.Context())
	c.JSON(http.StatusOK, toDashboardResponse(d))
}

// Health handles GET /health.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{OK: true})
}
