package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sandwormmr-eng/spun/internal/chain"
	"github.com/sandwormmr-eng/spun/internal/database"
	"github.com/sandwormmr-eng/spun/internal/models"
	"github.com/sandwormmr-eng/spun/internal/oracle"
	"github.com/sandwormmr-eng/spun/internal/redis"
	"github.com/sandwormmr-eng/spun/internal/referral"
	"github.com/sandwormmr-eng/spun/internal/session"
	"github.com/sandwormmr-eng/spun/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via other means (shell export,
	// docker, etc.), so a missing .env file is fine.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment variables from .env file")
	}
}

// Services bundles everything the HTTP layer needs.
type Services struct {
	Store     store.Store
	Sessions  *session.Service
	Referrals *referral.Service
	Asset     *AssetConfig
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	asset, err := LoadAssetConfig(cfg.Pricing.AssetsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to load asset config: %w", err)
	}
	zap.L().Info("Payment asset configured",
		zap.String("symbol", asset.Symbol),
		zap.String("network", asset.Network))

	st, err := initializeStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	rates := oracle.NewClient(cfg.Pricing.OracleURL, asset.OracleId, asset.QuoteCurrency, cfg.Pricing.RequestTimeout)
	observer := chain.NewObserver(cfg.Chain.RPCURL, cfg.Chain.RequestTimeout)

	sessions := session.NewService(st, rates, observer, cfg.Pricing.PriceUSD, cfg.Chain.RecipientWallet)
	referrals := referral.NewService(st, cfg.Referral.AdminSecret, cfg.Referral.EarningsPerSale)

	if cfg.Referral.AdminSecret == "" {
		zap.L().Warn("ADMIN_SECRET not set, all admin endpoints will reject")
	}

	return &Services{
		Store:     st,
		Sessions:  sessions,
		Referrals: referrals,
		Asset:     asset,
	}, nil
}

func initializeStore(ctx context.Context, cfg models.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return database.NewService(ctx, cfg)
	case "redis":
		return redis.NewService(ctx, cfg)
	case "none":
		zap.L().Warn("No store backend configured, running degraded: sessions cannot be confirmed")
		return store.NewUnavailableStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
}

func (cs *Services) Close() {
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
