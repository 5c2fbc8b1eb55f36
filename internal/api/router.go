// Package api exposes the dashboard over HTTP.
//
// The public router serves dashboard clients. Development operations live on
// a separate admin router meant for a loopback listener.
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// DefaultRequestsPerMinute is the per-IP limit on the public router.
const DefaultRequestsPerMinute = 120

// DefaultOrigins are the local dashboard front ends allowed by CORS.
var DefaultOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost",
	"http://127.0.0.1",
}

// RouterConfig configures the routers.
type RouterConfig struct {
	FrontendOrigin    string
	RequestsPerMinute int
}

// AllowedOrigins returns DefaultOrigins plus the configured front end.
func (c RouterConfig) AllowedOrigins() []string {
	origins := append([]string(nil), DefaultOrigins...)
	if o := strings.TrimRight(strings.TrimSpace(c.FrontendOrigin), "/"); o != "" {
		origins = append(origins, o)
	}
	return origins
}

// NewPublicRouter builds the public handler wrapped in CORS.
func NewPublicRouter(cfg RouterConfig, h *PublicHandler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("http")

	r := gin.New()
	r.Use(Recovery(log), Logger(log), RateLimit(cfg.RequestsPerMinute))

	r.GET("/dashboard", h.Dashboard)
	r.GET("/health", Health)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// NewAdminRouter builds the admin handler. metrics may be nil.
func NewAdminRouter(h *AdminHandler, metrics http.Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("admin_http")

	r := gin.New()
	r.Use(Recovery(log), Logger(log))

	r.GET("/health", Health)
	r.POST("/simulate/bump-mc", h.BumpMarketCap)
	r.GET("/debug/market-data", h.DebugMarketData)
	r.POST("/debug/credit/buyback", h.CreditBuyback)
	r.POST("/debug/credit/burn", h.CreditBurn)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
	return r
}
