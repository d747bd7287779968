package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"stakevault/config"
	"stakevault/crypto"
	"stakevault/native/stake"
	"stakevault/observability/logging"
	"stakevault/rpc"
	"stakevault/state"
	"stakevault/storage"
	"stakevault/token"
)

const rpcTokenEnv = "STAKEVAULT_RPC_TOKEN"

func main() {
	var (
		configPath = flag.String("config", "./config.toml", "path to the TOML configuration file")
		useMemory  = flag.Bool("memory", false, "run with an in-memory store instead of LevelDB")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("stakevaultd", cfg.Env, logging.Options{
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})

	if err := run(cfg, *useMemory, logger); err != nil {
		logger.Error("daemon exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, useMemory bool, logger *slog.Logger) error {
	var db storage.Database
	if useMemory {
		db = storage.NewMemDB()
	} else {
		ldb, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "stake"))
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		db = ldb
	}
	defer db.Close()

	mgr := state.NewManager(db)

	stakingToken, err := token.NewLedgerToken(mgr, cfg.StakingSymbol)
	if err != nil {
		return fmt.Errorf("staking token: %w", err)
	}
	rewardToken, err := token.NewLedgerToken(mgr, cfg.RewardSymbol)
	if err != nil {
		return fmt.Errorf("reward token: %w", err)
	}

	moduleAddr, authority, err := resolveAddresses(cfg)
	if err != nil {
		return err
	}

	oracle := stake.NewPoolOracle(mgr, stake.NewStaticOracle(cfg.OracleRateNum, cfg.OracleRateDen), cfg.StakingSymbol, cfg.RewardSymbol)
	oracle.SetMaxQuoteAge(time.Duration(cfg.OracleMaxQuoteAgeSeconds) * time.Second)
	engine := stake.NewEngine(mgr, oracle, stakingToken, rewardToken, moduleAddr, authority, cfg.StakeParams())

	authToken := os.Getenv(rpcTokenEnv)
	if authToken == "" {
		logger.Info("rpc auth token unset, mutating methods are open")
	}
	server := rpc.NewServer(engine, logger.With("component", "rpc"), authToken)

	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rpc listening", "address", cfg.RPCAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("rpc server: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// resolveAddresses derives the vault and authority accounts from the
// configuration. When unset, the vault falls back to a fixed well-known
// account; an unset authority leaves pool funding disabled.
func resolveAddresses(cfg *config.Config) (crypto.Address, crypto.Address, error) {
	module := defaultModuleAddress()
	if cfg.ModuleAddress != "" {
		decoded, err := crypto.DecodeAddress(cfg.ModuleAddress)
		if err != nil {
			return crypto.Address{}, crypto.Address{}, fmt.Errorf("module address: %w", err)
		}
		module = decoded
	}
	var authority crypto.Address
	if cfg.Authority != "" {
		decoded, err := crypto.DecodeAddress(cfg.Authority)
		if err != nil {
			return crypto.Address{}, crypto.Address{}, fmt.Errorf("authority address: %w", err)
		}
		authority = decoded
	}
	return module, authority, nil
}

func defaultModuleAddress() crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	copy(raw, []byte("stakevault-module"))
	return crypto.MustNewAddress(crypto.StakePrefix, raw)
}
