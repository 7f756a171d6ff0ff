// Package containers starts throwaway PostgreSQL instances for integration
// tests.
package containers

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	image      = "postgres:16.3-alpine"
	dbName     = "kronos"
	dbUser     = "kronos"
	dbPassword = "secret"

	startupTimeout = 30 * time.Second
)

// DBContainer is a running PostgreSQL container with the kronos schema
// already applied.
type DBContainer struct {
	container *postgres.PostgresContainer
	dsn       string
}

// schemaPath locates schema.sql relative to this file so callers in any
// package directory can use the container.
func schemaPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "database", "schema.sql")
}

// StartPostgres runs a PostgreSQL container and waits until it accepts
// connections. The caller must Terminate it.
func StartPostgres(ctx context.Context) (*DBContainer, error) {
	container, err := postgres.Run(ctx, image,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.WithInitScripts(schemaPath()),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(startupTimeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	// the container is not configured for TLS
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}

	return &DBContainer{container: container, dsn: dsn}, nil
}

// DSN returns the connection URL of the container's database.
func (c *DBContainer) DSN() string {
	return c.dsn
}

// Terminate stops and removes the container.
func (c *DBContainer) Terminate(ctx context.Context) error {
	if err := c.container.Terminate(ctx); err != nil {
		return fmt.Errorf("terminate postgres container: %w", err)
	}
	return nil
}
