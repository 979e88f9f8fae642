package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fastprodman/vendpay/internal/api"
	"github.com/fastprodman/vendpay/internal/infra/logging"
	"github.com/fastprodman/vendpay/internal/infra/pgutils"
	"github.com/fastprodman/vendpay/internal/services/identity"
	"github.com/fastprodman/vendpay/internal/services/sweeper"
	"github.com/fastprodman/vendpay/internal/services/vending"
	"github.com/fastprodman/vendpay/internal/services/wallet"
	"github.com/fastprodman/vendpay/pkg/envconf"
	"github.com/fastprodman/vendpay/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	dbConns, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		return dbConns.Close()
	})

	// --- Services ---
	vendingSrv := vending.New(dbConns, cfg.TransactionTTL)
	walletSrv := wallet.New(dbConns)
	identitySrv := identity.New(dbConns, cfg.JWTSecret, cfg.TokenTTL)

	// --- Expiry sweeper ---
	sweepCtx, stopSweep := context.WithCancel(context.Background())

	var sweepDone sync.WaitGroup

	sweepDone.Add(1)

	go func() {
		defer sweepDone.Done()
		sweeper.New(dbConns, cfg.SweepInterval).Run(sweepCtx)
	}()

	shutdownqueue.Add(func(context.Context) error {
		stopSweep()
		sweepDone.Wait()

		return nil
	})

	// --- HTTP server ---
	handler := api.NewHandler(vendingSrv, walletSrv, identitySrv, dbConns)
	srv := api.NewServer(cfg.Port, handler)

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
