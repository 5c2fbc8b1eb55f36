package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// Default Helius settings.
const (
	DefaultHeliusURL = "https://mainnet.helius-rpc.com/"
	heliusTimeout    = 20 * time.Second
	heliusRPS        = 10
	defaultDecimals  = 6
)

// HeliusSource quotes a mint through the Helius DAS getAsset method.
type HeliusSource struct {
	endpoint string
	mint     string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	limiter  ratelimit.Limiter
}

// NewHeliusSource creates a source for mint. An empty baseURL uses mainnet.
func NewHeliusSource(baseURL, apiKey, mint string, logger *zap.Logger) *HeliusSource {
	if baseURL == "" {
		baseURL = DefaultHeliusURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeliusSource{
		endpoint: baseURL + "?api-key=" + url.QueryEscape(apiKey),
		mint:     mint,
		client:   &http.Client{Timeout: heliusTimeout},
		breaker:  newBreaker("helius", logger),
		limiter:  ratelimit.New(heliusRPS),
	}
}

// Name implements Source.
func (s *HeliusSource) Name() string { return "helius" }

type heliusRequest struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      string       `json:"id"`
	Method  string       `json:"method"`
	Params  heliusParams `json:"params"`
}

type heliusParams struct {
	ID             string                 `json:"id"`
	DisplayOptions map[string]interface{} `json:"displayOptions"`
}

type heliusResponse struct {
	Result *struct {
		TokenInfo *struct {
			Supply    float64 `json:"supply"`
			Decimals  *int    `json:"decimals"`
			PriceInfo *struct {
				PricePerToken float64 `json:"price_per_token"`
				Currency      string  `json:"currency"`
			} `json:"price_info"`
		} `json:"token_info"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Quote implements Source.
func (s *HeliusSource) Quote(ctx context.Context) (*Quote, error) {
	s.limiter.Take()

	res, err := s.breaker.Execute(func() (interface{}, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("helius: %w", err)
	}
	return res.(*Quote), nil
}

func (s *HeliusSource) fetch(ctx context.Context) (*Quote, error) {
	body, err := json.Marshal(heliusRequest{
		JSONRPC: "2.0",
		ID:      "1",
		Method:  "getAsset",
		Params: heliusParams{
			ID:             s.mint,
			DisplayOptions: map[string]interface{}{"showFungibleTokens": true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(msg))
	}

	var payload heliusResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", payload.Error.Code, payload.Error.Message)
	}
	if payload.Result == nil || payload.Result.TokenInfo == nil || payload.Result.TokenInfo.PriceInfo == nil {
		return nil, fmt.Errorf("incomplete data for %s", s.mint)
	}

	info := payload.Result.TokenInfo
	decimals := defaultDecimals
	if info.Decimals != nil {
		decimals = *info.Decimals
	}

	price := info.PriceInfo.PricePerToken
	if price <= 0 || info.Supply <= 0 {
		return nil, fmt.Errorf("incomplete data for %s", s.mint)
	}

	supply := info.Supply / math.Pow10(decimals)
	return &Quote{
		PriceUSD:     price,
		MarketCapUSD: price * supply,
		Supply:       supply,
	}, nil
}
