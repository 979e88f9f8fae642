package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/vendpay/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" default:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"10s"`

	JWTSecret string        `env:"APP_JWT_SECRET"`
	TokenTTL  time.Duration `env:"APP_TOKEN_TTL" default:"24h"`

	// Reservation window for pending transactions.
	TransactionTTL time.Duration `env:"APP_TRANSACTION_TTL" default:"10m"`
	SweepInterval  time.Duration `env:"APP_SWEEP_INTERVAL" default:"60s"`

	Postgres config.PostgresConfig
}
