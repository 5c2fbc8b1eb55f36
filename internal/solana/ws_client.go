package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// Commitment is the commitment level for signature subscriptions.
	Commitment string
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Commitment:        "confirmed",
	}
}

type signatureResult struct {
	err error
}

// WSClientImpl implements SignatureWaiter using gorilla/websocket.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	logger   *zap.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// pending maps request ID to a waiter not yet confirmed by the node,
	// subs maps subscription ID to a confirmed waiter.
	pending map[uint64]chan signatureResult
	subs    map[int64]chan signatureResult
	waitMu  sync.Mutex

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup

	// reconnecting indicates reconnection in progress
	reconnecting atomic.Bool
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig, logger *zap.Logger) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.Commitment == "" {
		cfg.Commitment = "confirmed"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &WSClientImpl{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger.Named("ws"),
		pending:  make(map[uint64]chan signatureResult),
		subs:     make(map[int64]chan signatureResult),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// connect establishes WebSocket connection.
func (c *WSClientImpl) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// WaitForSignature subscribes to the signature and blocks until the node
// reports it settled. The subscription is removed by the node after the
// first notification.
func (c *WSClientImpl) WaitForSignature(ctx context.Context, signature string) error {
	if c.closed.Load() {
		return fmt.Errorf("client closed")
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]string{"commitment": c.config.Commitment},
		},
	}

	resultCh := make(chan signatureResult, 1)
	c.waitMu.Lock()
	c.pending[reqID] = resultCh
	c.waitMu.Unlock()

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		c.forget(reqID, resultCh)
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()

	if err != nil {
		c.forget(reqID, resultCh)
		return fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case res := <-resultCh:
		var txErr *TransactionError
		if errors.As(res.err, &txErr) {
			txErr.Signature = signature
		}
		return res.err
	case <-c.done:
		return fmt.Errorf("client closed")
	case <-ctx.Done():
		c.forget(reqID, resultCh)
		return ctx.Err()
	}
}

// forget drops a waiter from both the pending and the confirmed maps.
func (c *WSClientImpl) forget(reqID uint64, ch chan signatureResult) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	delete(c.pending, reqID)
	for id, sub := range c.subs {
		if sub == ch {
			delete(c.subs, id)
		}
	}
}

// failAll releases every outstanding waiter with err.
func (c *WSClientImpl) failAll(err error) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	for id, ch := range c.pending {
		ch <- signatureResult{err: err}
		delete(c.pending, id)
	}
	for id, ch := range c.subs {
		ch <- signatureResult{err: err}
		delete(c.subs, id)
	}
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.failAll(ErrConnectionLost)

	c.wg.Wait()
	return nil
}

// readLoop reads messages from WebSocket and dispatches to waiters.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			c.logger.Warn("read failed, reconnecting", zap.Error(err), zap.Duration("delay", reconnectDelay))

			// Subscriptions do not survive a reconnect.
			c.failAll(ErrConnectionLost)

			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect replaces the connection after a read failure.
func (c *WSClientImpl) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.logger.Warn("reconnect failed", zap.Error(err))
	}
}

// handleMessage processes incoming WebSocket message.
func (c *WSClientImpl) handleMessage(message []byte) {
	var resp wsResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		c.logger.Debug("unparseable message", zap.Error(err))
		return
	}

	switch {
	case resp.Method == "signatureNotification" && resp.Params != nil:
		c.handleSignatureNotification(resp.Params)
	case resp.ID != 0 && resp.Error != nil:
		c.handleErrorResponse(resp.ID, resp.Error)
	case resp.ID != 0 && resp.Result != nil:
		c.handleSubscribeResponse(resp.ID, resp.Result)
	}
}

// handleSubscribeResponse moves a pending waiter under its subscription ID.
func (c *WSClientImpl) handleSubscribeResponse(reqID uint64, raw json.RawMessage) {
	var subID int64
	if err := json.Unmarshal(raw, &subID); err != nil {
		return
	}

	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	ch, ok := c.pending[reqID]
	if !ok {
		return
	}
	delete(c.pending, reqID)
	c.subs[subID] = ch
}

func (c *WSClientImpl) handleErrorResponse(reqID uint64, rpcErr *RPCError) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	ch, ok := c.pending[reqID]
	if !ok {
		c.logger.Warn("error response", zap.Int("code", rpcErr.Code), zap.String("message", rpcErr.Message))
		return
	}
	delete(c.pending, reqID)
	ch <- signatureResult{err: rpcErr}
}

// handleSignatureNotification resolves the waiter for a settled signature.
func (c *WSClientImpl) handleSignatureNotification(params *wsNotificationParams) {
	var value wsSignatureValue
	if err := json.Unmarshal(params.Result.Value, &value); err != nil {
		return
	}

	c.waitMu.Lock()
	ch, ok := c.subs[params.Subscription]
	if ok {
		delete(c.subs, params.Subscription)
	}
	c.waitMu.Unlock()

	if !ok {
		return
	}

	var res signatureResult
	if value.Err != nil {
		res.err = &TransactionError{Err: value.Err}
	}
	ch <- res
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// Write errors surface on the next read.
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// wsResponse covers subscribe responses, errors and notifications.
type wsResponse struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      uint64                `json:"id"`
	Result  json.RawMessage       `json:"result"`
	Error   *RPCError             `json:"error"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext      `json:"context"`
	Value   json.RawMessage `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsSignatureValue struct {
	Err interface{} `json:"err"`
}

var _ SignatureWaiter = (*WSClientImpl)(nil)
