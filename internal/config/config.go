package config

import "time"

// PostgresConfig is the shared connection-pool configuration consumed by
// pgutils.OpenDB.
type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"30m"`

	// Startup behavior: the database may come up after the service.
	ConnectAttempts int           `env:"PG_CONNECT_ATTEMPTS" default:"5"`
	ConnectBackoff  time.Duration `env:"PG_CONNECT_BACKOFF" default:"2s"`
}
