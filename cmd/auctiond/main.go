package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"auctionchain/config"
	"auctionchain/core"
	"auctionchain/core/genesis"
	"auctionchain/native/auction"
	"auctionchain/observability/logging"
	telemetry "auctionchain/observability/otel"
	"auctionchain/rpc"
	"auctionchain/storage"
)

const (
	genesisPathEnv  = "AUCTION_GENESIS"
	shutdownTimeout = 10 * time.Second
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis YAML file (overrides AUCTION_GENESIS and config GenesisFile)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile, *genesisFlag); err != nil {
		fmt.Fprintf(os.Stderr, "auctiond: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, genesisFlag string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logOpts := logging.Options{Level: logging.ParseLevel(cfg.Logging.Level)}
	if strings.TrimSpace(cfg.Logging.File) != "" {
		logOpts.File = &logging.FileOptions{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		}
	}
	logger := logging.SetupWithOptions("auctiond", cfg.Environment, logOpts)

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "auctiond",
		Environment: cfg.Environment,
		Network:     cfg.NetworkName,
		ChainID:     cfg.ChainID,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	genesisPath := resolveGenesisPath(genesisFlag, cfg.GenesisFile, os.LookupEnv)
	if err := applyGenesis(db, genesisPath, cfg.ChainID, logger); err != nil {
		return err
	}

	node, err := core.NewNode(db, core.Options{
		ChainID: cfg.ChainID,
		Params: auction.Params{
			MaxBids:     cfg.Auction.MaxBids,
			RentPerByte: cfg.Auction.RentPerByte,
		},
		Pauses: cfg.Pauses,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}

	server := rpc.NewServer(node, logger, rpc.ServerConfig{
		AuthToken:         cfg.RPC.AuthToken,
		JWTSecret:         cfg.RPC.JWTSecret,
		JWTIssuer:         cfg.RPC.JWTIssuer,
		RequestsPerMinute: cfg.RPC.RequestsPerMinute,
		Burst:             cfg.RPC.Burst,
		ReadTimeout:       time.Duration(cfg.RPC.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.RPC.WriteTimeout) * time.Second,
	})
	listener, err := net.Listen("tcp", cfg.RPCAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.RPCAddress, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()
	logger.Info("auction node running",
		slog.String("network", cfg.NetworkName),
		slog.Uint64("chain_id", cfg.ChainID),
		slog.String("backend", cfg.Backend),
		logging.Configured("rpc_token", cfg.RPC.AuthToken),
		logging.Configured("jwt_secret", cfg.RPC.JWTSecret))

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("rpc server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("rpc shutdown: %w", err)
	}
	return nil
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemDB(), nil
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		db, err := storage.NewBoltDB(filepath.Join(cfg.DataDir, "state.db"))
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.BackendLevelDB, "":
		db, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

type envLookupFunc func(string) (string, bool)

func resolveGenesisPath(cliPath, cfgPath string, lookup envLookupFunc) string {
	if trimmed := strings.TrimSpace(cliPath); trimmed != "" {
		return trimmed
	}
	if lookup != nil {
		if value, ok := lookup(genesisPathEnv); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return strings.TrimSpace(cfgPath)
}

// applyGenesis seeds an empty store. A store that was already initialised must
// carry the configured chain id.
func applyGenesis(db storage.Database, path string, chainID uint64, logger *slog.Logger) error {
	if path == "" {
		stored, ok, err := genesis.StoredChainID(db)
		if err != nil {
			return err
		}
		if ok && stored != chainID {
			return fmt.Errorf("%w: store %d, config %d", genesis.ErrChainIDMismatch, stored, chainID)
		}
		if !ok {
			logger.Warn("starting without genesis; state is empty")
		}
		return nil
	}
	spec, err := genesis.LoadGenesisSpec(path)
	if err != nil {
		return fmt.Errorf("load genesis: %w", err)
	}
	if spec.ChainID != chainID {
		return fmt.Errorf("%w: genesis %d, config %d", genesis.ErrChainIDMismatch, spec.ChainID, chainID)
	}
	assets, err := genesis.Apply(spec, db)
	if err != nil {
		return fmt.Errorf("apply genesis: %w", err)
	}
	if len(assets) > 0 {
		logger.Info("genesis applied", slog.Int("assets", len(assets)), slog.String("path", path))
	}
	return nil
}
