package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/Black-And-White-Club/opsboard/config"
	"github.com/Black-And-White-Club/opsboard/db/bundb"
	"github.com/Black-And-White-Club/opsboard/integration_tests/containers"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
)

// TestEnvironment holds the Postgres container shared by one test package.
type TestEnvironment struct {
	Ctx         context.Context
	PgContainer *postgres.PostgresContainer
	DB          *bun.DB
	Config      *config.Config
}

var sharedEnv *TestEnvironment

// RunWithPostgres starts Postgres, migrates it and runs the package tests. When
// the container cannot start, tests that need it are skipped.
func RunWithPostgres(m *testing.M) {
	ctx := context.Background()

	env, err := NewTestEnvironment(ctx)
	if err != nil {
		log.Printf("Postgres unavailable, integration tests will be skipped: %v", err)
	}
	sharedEnv = env

	code := m.Run()

	if env != nil {
		env.Close()
	}
	os.Exit(code)
}

// RequireEnv returns the shared environment after wiping its tables, or skips
// the test.
func RequireEnv(t *testing.T) *TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if sharedEnv == nil {
		t.Skip("integration environment unavailable")
	}
	if err := CleanupDatabase(sharedEnv.Ctx, sharedEnv.DB); err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}
	return sharedEnv
}

// NewTestEnvironment starts the container, opens bun and runs every migration.
func NewTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to open sql DB connection: %w", err)
	}
	db := bun.NewDB(sqlDB, pgdialect.New())
	bundb.RegisterModels(db)

	if err := runMigrations(ctx, db, dsn); err != nil {
		_ = db.Close()
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestEnvironment{
		Ctx:         ctx,
		PgContainer: pgContainer,
		DB:          db,
		Config: &config.Config{
			Postgres: config.PostgresConfig{DSN: dsn},
		},
	}, nil
}

// Close releases the database and the container.
func (env *TestEnvironment) Close() {
	if err := env.DB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
	if err := env.PgContainer.Terminate(env.Ctx); err != nil {
		log.Printf("Error terminating postgres container: %v", err)
	}
}

// Observability returns quiet components for modules under test.
func Observability() observability.Observability {
	obs := observability.NewNoop()
	obs.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return obs
}
