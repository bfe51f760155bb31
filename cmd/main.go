// Command stellarvault runs the risk-tiered yield aggregation vault. It
// serves vault snapshots and metrics over HTTP and walks the user through a
// deposit in the terminal.
//
// Usage:
//
//	stellarvault --config config.yaml
//	stellarvault (uses built-in tiers against Horizon testnet)
//
// Required environment variables:
//
//	For the horizon platform: STELLAR_SECRET_KEY
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/stellarvault/config"
	"github.com/vadiminshakov/stellarvault/internal/engine"
	"github.com/vadiminshakov/stellarvault/internal/registry"
	"github.com/vadiminshakov/stellarvault/internal/services/ledger"
	"github.com/vadiminshakov/stellarvault/internal/setup"
	"github.com/vadiminshakov/stellarvault/internal/storage/deposits"
	"github.com/vadiminshakov/stellarvault/internal/web"
	"github.com/vadiminshakov/stellarvault/pkg/fixedpoint"
)

const simulatedFunding = 1_000 * fixedpoint.Unit

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	tiers, err := cfg.TierConfigs()
	if err != nil {
		logger.Fatal("invalid tier configuration", zap.Error(err))
	}
	reg, err := registry.New(tiers)
	if err != nil {
		logger.Fatal("failed to build vault registry", zap.Error(err))
	}

	var (
		led  ledger.Ledger
		user string
	)
	switch cfg.Platform {
	case "horizon":
		secret := os.Getenv("STELLAR_SECRET_KEY")
		if secret == "" {
			logger.Fatal("STELLAR_SECRET_KEY environment variable must be set")
		}
		hl, err := ledger.NewHorizonLedger(cfg.HorizonURL, secret, cfg.VaultAddress, cfg.NetworkPassphrase)
		if err != nil {
			logger.Fatal("failed to create horizon ledger", zap.Error(err))
		}
		led = hl
		user = hl.SourceAddress()
	case "simulate":
		user = "SIMULATED_USER"
		led = ledger.NewSimulatedLedger(user, "SIMULATED_VAULT", simulatedFunding)
	default:
		logger.Fatal("unsupported platform", zap.String("platform", cfg.Platform))
	}

	events, err := deposits.NewWALStore(filepath.Join(cfg.WalDir, "deposits"))
	if err != nil {
		logger.Fatal("failed to open deposit event store", zap.Error(err))
	}
	defer events.Close()

	eng, err := engine.New(reg, led, filepath.Join(cfg.WalDir, "intents"), events, logger)
	if err != nil {
		logger.Fatal("failed to create deposit engine", zap.Error(err))
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	server := web.NewServer(cfg.ListenAddr, reg, events)
	g.Go(func() error {
		logger.Info("serving vault state", zap.String("addr", cfg.ListenAddr))
		return server.Start(ctx)
	})

	g.Go(func() error {
		defer stop()
		return setup.RunWizard(ctx, eng, reg, user)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("shutdown with error", zap.Error(err))
	}
}
