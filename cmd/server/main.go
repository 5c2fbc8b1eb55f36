// Package main runs the buyback dashboard server.
//
// The public listener serves GET /dashboard and GET /health. When enabled,
// a second listener (loopback by default) serves the development endpoints
// and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"solana-buyback-burn/internal/api"
	"solana-buyback-burn/internal/config"
	"solana-buyback-burn/internal/dashboard"
	"solana-buyback-burn/internal/goal"
	"solana-buyback-burn/internal/market"
	"solana-buyback-burn/internal/observability"
	"solana-buyback-burn/internal/pipeline"
	"solana-buyback-burn/internal/pumpportal"
	"solana-buyback-burn/internal/solana"
	"solana-buyback-burn/internal/state"
	"solana-buyback-burn/internal/storage"
	"solana-buyback-burn/internal/storage/memory"
	"solana-buyback-burn/internal/wallet"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// server holds the wired components.
type server struct {
	cfg    *config.Config
	logger *zap.Logger

	ws        *solana.WSClientImpl
	dashboard *dashboard.Service
	admin     *dashboard.Admin
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if missing := cfg.Missing(); len(missing) > 0 {
		logger.Warn("configuration incomplete, pipeline actions will fail", zap.Strings("missing", missing))
	}

	s, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.close()

	gin.SetMode(gin.ReleaseMode)
	return s.serve(ctx)
}

func newServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*server, error) {
	s := &server{cfg: cfg, logger: logger}

	fee, err := cfg.PriorityFeeSOL()
	if err != nil {
		return nil, err
	}

	rpc := solana.NewHTTPClient(cfg.RPCURL)

	var walletOpts []wallet.Option
	if cfg.WSURL != "" {
		ws, err := solana.NewWSClient(ctx, cfg.WSURL, nil, logger)
		if err != nil {
			// Settlement falls back to the fixed delay.
			logger.Warn("websocket unavailable, using fixed settlement delay",
				zap.String("endpoint", cfg.WSURL), zap.Error(err))
		} else {
			s.ws = ws
			walletOpts = append(walletOpts, wallet.WithSignatureWaiter(ws))
		}
	}

	w := wallet.New(wallet.Config{
		Address:         cfg.WalletAddress,
		PrivateKey:      cfg.WalletPrivateKey,
		Mint:            cfg.Mint(),
		TokenProgram:    cfg.TokenProgramID,
		PriorityFee:     fee,
		SlippagePct:     cfg.SlippagePct,
		SettlementDelay: cfg.SettlementDelay,
	}, rpc, pumpportal.NewClient(cfg.PumpPortalURL), logger, walletOpts...)

	chain := market.NewChain(logger, marketSources(cfg, logger)...)
	logger.Info("market sources", zap.Strings("order", chain.Sources()))

	store := state.NewStore(
		goal.NewTracker(goal.DefaultStep),
		memory.NewTransactionLog(storage.DefaultTransactionLogCapacity),
	)

	var fetcherOpts []market.FetcherOption
	if mint := cfg.Mint(); mint != "" {
		fetcherOpts = append(fetcherOpts, market.WithSupplyReader(market.NewRPCSupply(rpc, mint)))
	}
	fetcher := market.NewFetcher(chain, store, market.FetcherConfig{
		InitialSupply: cfg.InitialSupply,
	}, logger, fetcherOpts...)

	p := pipeline.New(w, store, logger)
	s.dashboard = dashboard.NewService(store, fetcher, p, cfg.Mint(), logger)
	s.admin = dashboard.NewAdmin(s.dashboard, cfg.HeliusEnabled())
	return s, nil
}

// marketSources returns the sources in priority order.
func marketSources(cfg *config.Config, logger *zap.Logger) []market.Source {
	sources := []market.Source{
		market.NewDexScreenerSource("", cfg.DexScreenerPairID, logger),
	}
	if cfg.HeliusEnabled() && cfg.Mint() != "" {
		sources = append(sources, market.NewHeliusSource("", cfg.HeliusAPIKey, cfg.Mint(), logger))
	}
	if cfg.PlaceholderMint() {
		sources = append(sources, market.StaticSource{})
	}
	return sources
}

func (s *server) serve(ctx context.Context) error {
	routerCfg := api.RouterConfig{FrontendOrigin: s.cfg.FrontendOrigin}
	servers := []*http.Server{
		newHTTPServer(s.cfg.ListenAddr, api.NewPublicRouter(routerCfg, api.NewPublicHandler(s.dashboard), s.logger)),
	}
	if s.cfg.EnableAdmin {
		admin := api.NewAdminRouter(api.NewAdminHandler(s.admin, s.logger), observability.Handler(), s.logger)
		servers = append(servers, newHTTPServer(s.cfg.AdminAddr, admin))
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			s.logger.Info("starting HTTP server", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP servers")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to shutdown http server", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}
	return serveErr
}

func (s *server) close() {
	if s.ws != nil {
		if err := s.ws.Close(); err != nil {
			s.logger.Warn("close websocket", zap.Error(err))
		}
	}
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// A dashboard read can run the whole pipeline.
		WriteTimeout:   3 * time.Minute,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: http.DefaultMaxHeaderBytes,
	}
}
