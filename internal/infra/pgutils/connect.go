package pgutils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"database/sql"

	"github.com/fastprodman/vendpay/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

// OpenDB opens a pooled connection to Postgres and verifies it with a ping.
// The ping is retried with a linear backoff a bounded number of times so a
// database that is still starting does not fail the whole service; after
// the last attempt the error is returned to the caller.
func OpenDB(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}

		if attempt == attempts || ctx.Err() != nil {
			break
		}

		slog.Warn("database not ready, retrying",
			"attempt", attempt,
			"backoff", cfg.ConnectBackoff.String(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			_ = db.Close()

			return nil, fmt.Errorf("ping database: %w", ctx.Err())
		case <-time.After(cfg.ConnectBackoff):
		}
	}

	_ = db.Close()

	return nil, fmt.Errorf("ping database after %d attempts: %w", attempts, err)
}
