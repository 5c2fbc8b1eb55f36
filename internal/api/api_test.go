package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"solana-buyback-burn/internal/dashboard"
	"solana-buyback-burn/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticReader struct {
	d     domain.Dashboard
	reads int
}

func (r *staticReader) Read(context.Context) domain.Dashboard {
	r.reads++
	return r.d
}

// MockAdminOps is a mock for AdminOps.
type MockAdminOps struct {
	mock.Mock
}

func (m *MockAdminOps) BumpMarketCap(delta float64) (float64, error) {
	args := m.Called(delta)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockAdminOps) DebugMarketData(ctx context.Context) dashboard.MarketDebug {
	args := m.Called(ctx)
	return args.Get(0).(dashboard.MarketDebug)
}

func (m *MockAdminOps) CreditBuyback(usd float64) (domain.TransactionRecord, error) {
	args := m.Called(usd)
	return args.Get(0).(domain.TransactionRecord), args.Error(1)
}

func (m *MockAdminOps) CreditBurn(usd float64) (domain.TransactionRecord, error) {
	args := m.Called(usd)
	return args.Get(0).(domain.TransactionRecord), args.Error(1)
}

func serve(h http.Handler, method, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPublicRouter_Dashboard(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reader := &staticReader{d: domain.Dashboard{
		PriceUSD:            0.000123,
		VolumeChangePct:     -3.5,
		BuybacksUSD:         20,
		MarketCapUSD:        150_000,
		NextGoalUSD:         200_000,
		NextGoalProgressPct: 50,
		TokenMint:           "Mint111",
		Transactions: []domain.TransactionRecord{
			{ID: "a", Signature: "sig1", Kind: domain.TxKindBuyback, Amount: decimal.RequireFromString("0.1"),
				Unit: domain.UnitSOL, Status: domain.TxStatusConfirmed, Timestamp: ts, Description: "Executed buy-back of 0.1 SOL"},
			{ID: "b", Kind: domain.TxKindClaim, Amount: decimal.Zero, Unit: domain.UnitSOL,
				Status: domain.TxStatusRecorded, Timestamp: ts, Description: "Claim failed: boom"},
		},
	}}
	h := NewPublicRouter(RouterConfig{}, NewPublicHandler(reader), nil)

	w := serve(h, http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0.000123, body["price_usd"])
	assert.Equal(t, -3.5, body["volume_change_pct"])
	assert.Equal(t, 200_000.0, body["next_goal_usd"])
	assert.Equal(t, 50.0, body["next_goal_progress_pct"])
	assert.Equal(t, "Mint111", body["token_mint"])

	txs := body["transactions"].([]interface{})
	require.Len(t, txs, 2)
	first := txs[0].(map[string]interface{})
	assert.Equal(t, "sig1", first["signature"])
	assert.Equal(t, "buyback", first["kind"])
	assert.Equal(t, 0.1, first["amount"])
	assert.Equal(t, "confirmed", first["status"])
	assert.Equal(t, "2024-05-01T12:00:00Z", first["timestamp"])
	assert.Nil(t, txs[1].(map[string]interface{})["signature"])
}

func TestPublicRouter_EmptyTransactionsIsArray(t *testing.T) {
	h := NewPublicRouter(RouterConfig{}, NewPublicHandler(&staticReader{}), nil)
	w := serve(h, http.MethodGet, "/dashboard")
	assert.Contains(t, w.Body.String(), `"transactions":[]`)
}

func TestPublicRouter_Health(t *testing.T) {
	h := NewPublicRouter(RouterConfig{}, NewPublicHandler(&staticReader{}), nil)
	w := serve(h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestPublicRouter_AdminRoutesNotExposed(t *testing.T) {
	h := NewPublicRouter(RouterConfig{}, NewPublicHandler(&staticReader{}), nil)
	for _, path := range []string{"/simulate/bump-mc", "/debug/credit/burn?usd=1"} {
		w := serve(h, http.MethodPost, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/debug/market-data").Code)
}

func TestPublicRouter_CORS(t *testing.T) {
	h := NewPublicRouter(RouterConfig{FrontendOrigin: "https://burn.example/"}, NewPublicHandler(&staticReader{}), nil)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"http://127.0.0.1:3000", true},
		{"https://burn.example", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		w := serve(h, http.MethodGet, "/health", "Origin", tt.origin)
		got := w.Header().Get("Access-Control-Allow-Origin")
		if tt.allowed {
			assert.Equal(t, tt.origin, got, tt.origin)
		} else {
			assert.Empty(t, got, tt.origin)
		}
	}
}

func TestPublicRouter_RateLimit(t *testing.T) {
	reader := &staticReader{}
	h := NewPublicRouter(RouterConfig{RequestsPerMinute: 2}, NewPublicHandler(reader), nil)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/dashboard").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/dashboard").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodGet, "/dashboard").Code)
	assert.Equal(t, 2, reader.reads)
}

func TestAdminRouter_BumpMarketCap(t *testing.T) {
	ops := new(MockAdminOps)
	ops.On("BumpMarketCap", dashboard.DefaultBumpUSD).Return(160_000.0, nil).Once()
	ops.On("BumpMarketCap", 5000.0).Return(165_000.0, nil).Once()
	h := NewAdminRouter(NewAdminHandler(ops, nil), nil, nil)

	w := serve(h, http.MethodPost, "/simulate/bump-mc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"market_cap_usd":160000}`, w.Body.String())

	w = serve(h, http.MethodPost, "/simulate/bump-mc?delta_usd=5000")
	assert.JSONEq(t, `{"market_cap_usd":165000}`, w.Body.String())

	w = serve(h, http.MethodPost, "/simulate/bump-mc?delta_usd=lots")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ops.AssertExpectations(t)
}

func TestAdminRouter_Credit(t *testing.T) {
	ops := new(MockAdminOps)
	rec := domain.TransactionRecord{ID: "x", Kind: domain.TxKindBuyback, Amount: decimal.NewFromInt(500000),
		Unit: domain.UnitToken, Status: domain.TxStatusRecorded, Timestamp: time.Now()}
	ops.On("CreditBuyback", 50.0).Return(rec, nil)
	ops.On("CreditBurn", 0.0).Return(domain.TransactionRecord{}, fmt.Errorf("credit burn: %w", domain.ErrInvalidAmount))
	h := NewAdminRouter(NewAdminHandler(ops, nil), nil, nil)

	w := serve(h, http.MethodPost, "/debug/credit/buyback?usd=50")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Transaction TransactionResponse `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 500000.0, body.Transaction.Amount)
	assert.Equal(t, "TOKEN", body.Transaction.Unit)

	w = serve(h, http.MethodPost, "/debug/credit/burn")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRouter_DebugAndMetrics(t *testing.T) {
	ops := new(MockAdminOps)
	ops.On("DebugMarketData", mock.Anything).Return(dashboard.MarketDebug{
		TokenMint:    "Mint111",
		AfterRefresh: dashboard.MarketView{PriceUSD: 0.0002, MarketCapUSD: 200_000},
	})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "buyback_up 1\n")
	})
	h := NewAdminRouter(NewAdminHandler(ops, nil), metrics, nil)

	w := serve(h, http.MethodGet, "/debug/market-data")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"after_refresh":{"price_usd":0.0002,"market_cap_usd":200000}`)
	assert.Contains(t, w.Body.String(), `"helius_api_key_set":false`)

	w = serve(h, http.MethodGet, "/metrics")
	assert.Equal(t, "buyback_up 1\n", w.Body.String())

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health").Code)
}
