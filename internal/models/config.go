package models

import "time"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Pricing  PricingConfig
	Chain    ChainConfig
	Referral ReferralConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StoreConfig selects and configures the session store backend.
// Backend is one of "sqlite", "redis" or "none"; "none" runs the
// service without persistence (sessions are handed out but can
// never be confirmed).
type StoreConfig struct {
	Backend string

	// SQLite settings
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// PricingConfig holds the price lock settings.
// PriceUSD is a server-side constant, never client input.
type PricingConfig struct {
	PriceUSD       int64
	OracleURL      string
	AssetsFile     string
	RequestTimeout time.Duration
}

// ChainConfig holds blockchain observation settings
type ChainConfig struct {
	RPCURL          string
	RecipientWallet string
	RequestTimeout  time.Duration
}

// ReferralConfig holds affiliate program settings
type ReferralConfig struct {
	AdminSecret     string
	EarningsPerSale int64
	InstallCommand  string
}
