package bundb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	contentdb "github.com/Black-And-White-Club/opsboard/app/modules/content/infrastructure/repositories"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/opsboard/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Open connects to Postgres and registers the models of every module.
func Open(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*bun.DB, error) {
	sqldb, err := pgConn(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	RegisterModels(db)

	logger.InfoContext(ctx, "Connected to Postgres")
	return db, nil
}

// RegisterModels registers every bun model used by the repositories.
func RegisterModels(db *bun.DB) {
	db.RegisterModel(
		(*userdb.User)(nil),
		(*contentdb.Terrain)(nil),
		(*contentdb.ModPack)(nil),
		(*contentdb.ModPackRevision)(nil),
		(*eventdb.Event)(nil),
		(*eventdb.UserEventMeta)(nil),
		(*eventdb.EventSlot)(nil),
	)
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}
