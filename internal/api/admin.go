package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"solana-buyback-burn/internal/dashboard"
	"solana-buyback-burn/internal/domain"
)

// AdminOps is the set of development operations exposed on the admin router.
type AdminOps interface {
	BumpMarketCap(delta float64) (float64, error)
	DebugMarketData(ctx context.Context) dashboard.MarketDebug
	CreditBuyback(usd float64) (domain.TransactionRecord, error)
	CreditBurn(usd float64) (domain.TransactionRecord, error)
}

// AdminHandler serves the admin endpoints.
type AdminHandler struct {
	ops    AdminOps
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(ops AdminOps, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{ops: ops, logger: logger}
}

// BumpMarketCap handles POST /simulate/bump-mc?delta_usd=.
func (h *AdminHandler) BumpMarketCap(c *gin.Context) {
	delta, ok := floatQuery(c, "delta_usd", dashboard.DefaultBumpUSD)
	if !ok {
		return
	}
	mc, err := h.ops.BumpMarketCap(delta)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, marketCapResponse{MarketCapUSD: mc})
}

// DebugMarketData handles GET /debug/market-data.
func (h *AdminHandler) DebugMarketData(c *gin.Context) {
	c.JSON(http.StatusOK, h.ops.DebugMarketData(c.Request.Context()))
}

// CreditBuyback handles POST /debug/credit/buyback?usd=.
func (h *AdminHandler) CreditBuyback(c *gin.Context) {
	h.credit(c, h.ops.CreditBuyback)
}

// CreditBurn handles POST /debug/credit/burn?usd=.
func (h *AdminHandler) CreditBurn(c *gin.Context) {
	h.credit(c, h.ops.CreditBurn)
}

func (h *AdminHandler) credit(c *gin.Context, fn func(float64) (domain.TransactionRecord, error)) {
	usd, ok := floatQuery(c, "usd", 0)
	if !ok {
		return
	}
	rec, err := fn(usd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, creditResponse{Transaction: toTransactionResponse(rec)})
}

func (h *AdminHandler) respondError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidAmount) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.logger.Error("admin operation failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// floatQuery parses a float query parameter, answering 400 when malformed.
func floatQuery(c *gin.Context, name string, def float64) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return 0, false
	}
	return v, true
}
