// Package pumpportal builds unsigned trade transactions through the
// PumpPortal trade-local API.
package pumpportal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultURL is the trade-local endpoint.
const DefaultURL = "https://pumpportal.fun/api/trade-local"

// DefaultTimeout bounds a single trade request.
const DefaultTimeout = 60 * time.Second

// Action is a trade-local action.
type Action string

const (
	ActionCollectCreatorFee Action = "collectCreatorFee"
	ActionBuy               Action = "buy"
	ActionSell              Action = "sell"
)

// ErrEmptyTransaction is returned when the API answers 2xx with no body.
var ErrEmptyTransaction = errors.New("pumpportal returned an empty transaction")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pumpportal status %d: %s", e.StatusCode, e.Body)
}

// Request describes one trade-local call.
type Request struct {
	PublicKey string
	Action    Action
	Mint      string
	// Amount is SOL when DenominatedInSOL is set, token units otherwise.
	Amount           decimal.Decimal
	DenominatedInSOL bool
	SlippagePct      int
	PriorityFee      decimal.Decimal
	Pool             string
}

// Form encodes the request as the API's form body. Fee collection carries
// only the wallet, the action and the priority fee.
func (r Request) Form() url.Values {
	form := url.Values{}
	form.Set("publicKey", r.PublicKey)
	form.Set("action", string(r.Action))
	form.Set("priorityFee", r.PriorityFee.String())

	if r.Action == ActionCollectCreatorFee {
		return form
	}

	form.Set("mint", r.Mint)
	form.Set("amount", r.Amount.String())
	form.Set("denominatedInSol", strconv.FormatBool(r.DenominatedInSOL))
	form.Set("slippage", strconv.Itoa(r.SlippagePct))
	pool := r.Pool
	if pool == "" {
		pool = "auto"
	}
	form.Set("pool", pool)
	return form
}

// Client calls the trade-local API.
type Client struct {
	endpoint string
	client   *http.Client
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a client for endpoint, or DefaultURL when empty.
func NewClient(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trade posts req and returns the unsigned serialized transaction.
// Trades are never retried.
func (c *Client) Trade(ctx context.Context, req Request) ([]byte, error) {
	if req.PublicKey == "" {
		return nil, fmt.Errorf("trade %s: empty public key", req.Action)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(req.Form().Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("trade %s: %w", req.Action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if len(body) == 0 {
		return nil, ErrEmptyTransaction
	}
	return body, nil
}
