// Package config defines the server configuration, read from flags and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the process configuration. Every field can be set by flag or by
// its environment variable.
type Config struct {
	WalletAddress    string `long:"wallet-address" env:"WALLET_ADDRESS" description:"operating wallet address; derived from the private key when empty"`
	WalletPrivateKey string `long:"wallet-private-key" env:"WALLET_PRIVATE_KEY" description:"base58 64-byte secret key of the operating wallet"`
	TokenMint        string `long:"token-mint" env:"TOKEN_MINT" description:"mint address of the tracked token"`
	TokenProgramID   string `long:"token-program-id" env:"TOKEN_PROGRAM_ID" description:"token program owning the mint; detected when empty"`

	RPCURL string `long:"rpc-url" env:"SOLANA_RPC_URL" default:"https://api.mainnet-beta.solana.com" description:"Solana JSON-RPC endpoint"`
	WSURL  string `long:"ws-url" env:"SOLANA_WS_URL" description:"Solana WebSocket endpoint for settlement confirmation"`

	PriorityFee     string        `long:"priority-fee" env:"PRIORITY_FEE" default:"0.000001" description:"priority fee in SOL for trades"`
	SlippagePct     int           `long:"slippage-pct" env:"SLIPPAGE_PCT" default:"10" description:"buy slippage in percent"`
	SettlementDelay time.Duration `long:"settlement-delay" env:"SETTLEMENT_DELAY" default:"2s" description:"wait after a trade when no WebSocket endpoint is set"`
	PumpPortalURL   string        `long:"pumpportal-url" env:"PUMPPORTAL_URL" default:"https://pumpportal.fun/api/trade-local" description:"trade-local endpoint"`

	HeliusAPIKey      string  `long:"helius-api-key" env:"HELIUS_API_KEY" description:"Helius API key for the secondary price source"`
	DexScreenerPairID string  `long:"dexscreener-pair-id" env:"DEXSCREENER_PAIR_ID" default:"HV6X26GhkNyUksCEVxReraQU8CLJV8nkiLBq1UEBEvzH" description:"DexScreener pair address"`
	InitialSupply     float64 `long:"initial-supply" env:"INITIAL_SUPPLY" default:"1000000000" description:"token supply at launch, used for the burned percentage"`

	ListenAddr     string `long:"listen-addr" env:"LISTEN_ADDR" default:":8000" description:"public HTTP address"`
	AdminAddr      string `long:"admin-addr" env:"ADMIN_ADDR" default:"127.0.0.1:8001" description:"admin HTTP address"`
	EnableAdmin    bool   `long:"enable-admin" env:"ENABLE_ADMIN" description:"serve the admin router"`
	FrontendOrigin string `long:"frontend-origin" env:"FRONTEND_ORIGIN" description:"extra CORS origin for the dashboard front end"`

	LogLevel string `long:"log-level" env:"LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log level"`
}

var placeholderMints = map[string]bool{
	"":                             true,
	"THE_TOKEN_MINT_ADDRESS":       true,
	"YOUR_TOKEN_MINT_ADDRESS_HERE": true,
}

var placeholderHeliusKeys = map[string]bool{
	"":                         true,
	"PLACEHOLDER":              true,
	"YOUR_HELIUS_API_KEY_HERE": true,
}

// Parse reads args (without the program name) and the environment.
func Parse(args []string) (*Config, error) {
	var cfg Config
	if _, err := flags.ParseArgs(&cfg, args); err != nil {
		return nil, err
	}
	if _, err := cfg.PriorityFeeSOL(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PriorityFeeSOL returns the priority fee as a decimal.
func (c *Config) PriorityFeeSOL() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(c.PriorityFee))
	if err != nil {
		return decimal.Zero, fmt.Errorf("priority fee %q: %w", c.PriorityFee, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("priority fee %q: must not be negative", c.PriorityFee)
	}
	return fee, nil
}

// PlaceholderMint reports whether no real mint is configured.
func (c *Config) PlaceholderMint() bool {
	return placeholderMints[strings.TrimSpace(c.TokenMint)]
}

// HeliusEnabled reports whether a real Helius key is configured.
func (c *Config) HeliusEnabled() bool {
	return !placeholderHeliusKeys[strings.TrimSpace(c.HeliusAPIKey)]
}

// Missing lists the unset values the pipeline needs. The server runs
// without them; the affected actions fail when attempted.
func (c *Config) Missing() []string {
	var missing []string
	if c.WalletPrivateKey == "" {
		missing = append(missing, "WALLET_PRIVATE_KEY")
	}
	if c.WalletAddress == "" && c.WalletPrivateKey == "" {
		missing = append(missing, "WALLET_ADDRESS")
	}
	if c.PlaceholderMint() {
		missing = append(missing, "TOKEN_MINT")
	}
	return missing
}

// Mint returns the configured mint, or "" for placeholders.
func (c *Config) Mint() string {
	if c.PlaceholderMint() {
		return ""
	}
	return strings.TrimSpace(c.TokenMint)
}

// NewLogger builds the process logger for LogLevel.
func (c *Config) NewLogger() (*zap.Logger, error) {
	if c.LogLevel == "debug" {
		return zap.NewDevelopment()
	}
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
