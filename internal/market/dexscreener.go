package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// Default DexScreener settings.
const (
	DefaultDexScreenerURL    = "https://api.dexscreener.com"
	DefaultDexScreenerPairID = "HV6X26GhkNyUksCEVxReraQU8CLJV8nkiLBq1UEBEvzH"
	dexScreenerTimeout       = 15 * time.Second
	dexScreenerRPS           = 5
)

// DexScreenerSource quotes a Solana pair from the DexScreener pairs API.
type DexScreenerSource struct {
	baseURL string
	pairID  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
}

// NewDexScreenerSource creates a source for pairID. An empty baseURL uses
// the public API.
func NewDexScreenerSource(baseURL, pairID string, logger *zap.Logger) *DexScreenerSource {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	if pairID == "" {
		pairID = DefaultDexScreenerPairID
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DexScreenerSource{
		baseURL: baseURL,
		pairID:  pairID,
		client:  &http.Client{Timeout: dexScreenerTimeout},
		breaker: newBreaker("dexscreener", logger),
		limiter: ratelimit.New(dexScreenerRPS),
	}
}

// Name implements Source.
func (s *DexScreenerSource) Name() string { return "dexscreener" }

type dexScreenerResponse struct {
	Pairs []dexScreenerPair `json:"pairs"`
	Pair  *dexScreenerPair  `json:"pair"`
}

type dexScreenerPair struct {
	PairAddress string `json:"pairAddress"`
	PriceNative string `json:"priceNative"`
	PriceUSD    string `json:"priceUsd"`
	PriceChange struct {
		H24 *float64 `json:"h24"`
	} `json:"priceChange"`
	FDV       float64 `json:"fdv"`
	MarketCap float64 `json:"marketCap"`
}

// Quote implements Source.
func (s *DexScreenerSource) Quote(ctx context.Context) (*Quote, error) {
	s.limiter.Take()

	res, err := s.breaker.Execute(func() (interface{}, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("dexscreener: %w", err)
	}
	return res.(*Quote), nil
}

func (s *DexScreenerSource) fetch(ctx context.Context) (*Quote, error) {
	url := fmt.Sprintf("%s/latest/dex/pairs/solana/%s", s.baseURL, s.pairID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var payload dexScreenerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	pair := payload.Pair
	if len(payload.Pairs) > 0 {
		pair = &payload.Pairs[0]
	}
	if pair == nil {
		return nil, fmt.Errorf("pair %s not found", s.pairID)
	}

	q := &Quote{
		PriceUSD:     parseFloat(pair.PriceUSD),
		PriceNative:  parseFloat(pair.PriceNative),
		MarketCapUSD: pair.MarketCap,
	}
	if q.MarketCapUSD <= 0 {
		q.MarketCapUSD = pair.FDV
	}
	if pair.PriceChange.H24 != nil {
		q.Change24hPct = *pair.PriceChange.H24
	}
	return q, nil
}

// parseFloat reads DexScreener's string-encoded numbers, treating garbage
// as zero.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
