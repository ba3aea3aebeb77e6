// Package main runs the market-making engine service: a registry of
// per-(user, mint) engines behind an HTTP control surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"solana-mm-brain/internal/chain"
	"solana-mm-brain/internal/config"
	"solana-mm-brain/internal/engine"
	"solana-mm-brain/internal/keystore"
	"solana-mm-brain/internal/lifecycle"
	"solana-mm-brain/internal/market"
	"solana-mm-brain/internal/observability"
	"solana-mm-brain/internal/solana"
	"solana-mm-brain/internal/storage"
	chstore "solana-mm-brain/internal/storage/clickhouse"
	"solana-mm-brain/internal/storage/memory"
	"solana-mm-brain/internal/storage/migrations"
	pgstore "solana-mm-brain/internal/storage/postgres"
	"solana-mm-brain/internal/telemetry"
)

// stores holds the persistence backends.
type stores struct {
	configs   storage.ConfigStore
	results   storage.TradeResultStore
	snapshots storage.SnapshotStore
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config (optional)")
	envFile := flag.String("env-file", ".env", "Dotenv file loaded before the config (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("engine service failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(cfg config.File, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys, err := keystore.NewSecretBox(os.Getenv(cfg.KeyStore.KeyEnv))
	if err != nil {
		return fmt.Errorf("key store (%s): %w", cfg.KeyStore.KeyEnv, err)
	}

	st, cleanup, err := createStores(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	rpc := solana.NewHTTPClient(cfg.Solana.RPCEndpoint,
		solana.WithTimeout(cfg.Solana.Timeout),
		solana.WithMaxRetries(cfg.Solana.MaxRetries),
		solana.WithLatencyObserver(observability.RecordRPCLatency),
	)

	// No transaction builder ships with this binary, so every engine runs dry.
	adapter := chain.NewRPCAdapter(rpc, nil)
	if !adapter.CanExecute() {
		logger.Warn("no trade executor configured; all engines are forced into dry-run")
	}

	metrics := observability.DefaultMetrics
	hub := telemetry.NewHub(telemetry.Options{
		Logger:  logger.Named("feed"),
		Clients: metrics.FeedClients,
		Dropped: metrics.FeedDropped,
	})
	defer hub.Close()

	registry, err := lifecycle.NewRegistry(lifecycle.Options{
		KeyStore:    keys,
		Adapter:     adapter,
		Observers:   observerFactory(cfg.Market, rpc, st.snapshots, logger),
		ConfigStore: st.configs,
		Results:     st.results,
		History:     st.results,
		Metrics:     metrics,
		Defaults:    &cfg.Engine,
		ForceDryRun: !adapter.CanExecute(),
		Logger:      logger.Named("engine"),
		OnLog:       hub.Publish,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           newAPI(registry, st.results, hub, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	// A second signal forces exit.
	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-shutdownCtx.Done():
		}
	}()

	var errs []error
	if err := registry.StopAll(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("stop engines: %w", err))
	}
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// observerFactory builds one observer per engine. Each has its own price
// history; the sources are stateless apart from the holder cache.
func observerFactory(cfg config.MarketConfig, rpc solana.RPCClient, recorder storage.SnapshotStore, logger *zap.Logger) lifecycle.ObserverFactory {
	dex := market.NewDexScreenerSource(cfg.DexScreenerURL)
	return func(mint string) (engine.Observer, error) {
		sources := []market.Source{market.NewCurveSource(rpc), dex}
		if !cfg.DisableHolders {
			sources = append(sources, market.NewHolderSource(rpc, cfg.HolderCountTTL))
		}
		return market.NewObserver(market.Options{
			Sources:     sources,
			HistorySize: cfg.HistorySize,
			Recorder:    recorder,
			Logger:      logger.Named("market").With(zap.String("mint", mint)),
		})
	}
}

// createStores creates either in-memory or database-backed stores and runs
// migrations for the latter.
func createStores(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*stores, func(), error) {
	if cfg.UseMemory {
		logger.Info("using in-memory storage")
		return &stores{
			configs:   memory.NewConfigStore(),
			results:   memory.NewTradeResultStore(),
			snapshots: memory.NewSnapshotStore(),
		}, func() {}, nil
	}
	if cfg.PostgresDSN == "" || cfg.ClickHouseDSN == "" {
		return nil, nil, errors.New("postgres and clickhouse DSNs are required unless storage.useMemory is set")
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN,
		pgstore.WithMaxConns(cfg.PostgresMaxConns),
		pgstore.WithQueryObserver(func(op string, seconds float64, err error) {
			observability.RecordDBQuery("postgres", op, seconds, err)
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		_ = conn.Close()
		pool.Close()
	}
	return &stores{
		configs:   pgstore.NewConfigStore(pool),
		results:   pgstore.NewTradeResultStore(pool),
		snapshots: chstore.NewSnapshotStore(conn),
	}, cleanup, nil
}
