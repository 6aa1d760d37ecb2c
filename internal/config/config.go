package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sandwormmr-eng/spun/internal/models"
)

// Defaults carried over from the original deployment.
const (
	defaultPriceUSD        = 125
	defaultEarningsPerSale = 25
	defaultRecipientWallet = "FN74faeP6NUnUqtFwohKKQzbWLbbWjJf3Dw5LGPe1gDt"
	defaultOracleURL       = "https://api.coingecko.com"
	defaultChainRPCURL     = "https://api.mainnet-beta.solana.com"
	defaultInstallCommand  = "curl -fsSL https://raw.githubusercontent.com/sandwormmr-eng/spun/main/install.sh | bash"
)

func Load() (*models.Config, error) {
	readTimeout, err := getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	oracleTimeout, err := getEnvDuration("ORACLE_REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	chainTimeout, err := getEnvDuration("CHAIN_REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	backend := getEnvString("STORE_BACKEND", "sqlite")
	switch backend {
	case "sqlite", "redis", "none":
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q (want sqlite, redis or none)", backend)
	}

	return &models.Config{
		Server: models.ServerConfig{
			ListenAddr:      getEnvString("LISTEN_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Store: models.StoreConfig{
			Backend:         backend,
			Path:            getEnvString("DATABASE_PATH", "sessions.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			RedisAddr:       getEnvString("REDIS_ADDR", "localhost:6379"),
			RedisPassword:   getEnvString("REDIS_PASSWORD", ""),
			RedisDB:         getEnvInt("REDIS_DB", 0),
		},
		Pricing: models.PricingConfig{
			PriceUSD:       getEnvInt64("PRICE_USD", defaultPriceUSD),
			OracleURL:      getEnvString("PRICE_ORACLE_URL", defaultOracleURL),
			AssetsFile:     getEnvString("ASSETS_FILE", "assets.yaml"),
			RequestTimeout: oracleTimeout,
		},
		Chain: models.ChainConfig{
			RPCURL:          getEnvString("CHAIN_RPC_URL", defaultChainRPCURL),
			RecipientWallet: getEnvString("RECIPIENT_WALLET", defaultRecipientWallet),
			RequestTimeout:  chainTimeout,
		},
		Referral: models.ReferralConfig{
			AdminSecret:     os.Getenv("ADMIN_SECRET"),
			EarningsPerSale: getEnvInt64("EARNINGS_PER_CONVERSION", defaultEarningsPerSale),
			InstallCommand:  getEnvString("INSTALL_COMMAND", defaultInstallCommand),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
