// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/kronos/internal/config"
	"github.com/Shivanand-hulikatti/kronos/internal/database"
	"github.com/Shivanand-hulikatti/kronos/internal/handler"
	"github.com/Shivanand-hulikatti/kronos/internal/logging"
	"github.com/Shivanand-hulikatti/kronos/internal/repository"
	"github.com/Shivanand-hulikatti/kronos/internal/service"
	"github.com/itbasis/go-clock"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "kronos",
		Short:         "Find a common play time for your gaming group",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads config and builds the logger shared by every command.
func setup() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(&logging.Config{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	return cfg, logger, nil
}

// openStore returns the configured store and the closer that releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (repository.Store, io.Closer, error) {
	clk := clock.New()

	switch cfg.Store {
	case config.StoreBadger:
		store, err := repository.OpenBadgerStore(repository.BadgerOptions{
			Dir:      cfg.BadgerDir,
			InMemory: cfg.BadgerInMemory,
			Logger:   logger,
		}, clk)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using badger store (dir=%q in_memory=%t)", cfg.BadgerDir, cfg.BadgerInMemory)
		return store, store, nil

	default:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		logger.Info("connected to PostgreSQL at %s:%s/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
		return repository.NewPostgresStore(pool, clk), closerFunc(func() error { pool.Close(); return nil }), nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Close()

			pool, err := database.NewPool(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer pool.Close()

			if err := database.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			logger.Info("schema applied")
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Close()

			// ── 1. Open the store ─────────────────────────────────────────────
			store, closer, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closer.Close()

			// ── 2. Wire up layers ────────────────────────────────────────────
			scheduler := service.NewScheduler(store, logger)
			teamHandler := handler.NewTeamHandler(scheduler, logger)
			router := handler.NewRouter(teamHandler, logger)

			// ── 3. Start server with graceful shutdown ────────────────────────
			srv := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening on http://localhost:%s", cfg.Port)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case err := <-errCh:
				return fmt.Errorf("server error: %w", err)
			}

			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			logger.Info("server stopped")
			return nil
		},
	}
}
