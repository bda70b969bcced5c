package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"nodestore/internal/repository/postgres/migrations"
)

// tablePrefixEnv is the variable goose ENVSUB expands inside the SQL files
const tablePrefixEnv = "TABLE_PREFIX"

// gooseUpContext is a seam for testing goose.UpContext
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations for the tables' prefix.
// Each prefix keeps its own goose version table, so dev_ and test_ schemas
// can share one database.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return runMigrations(ctx, db, tables.Prefix, logger)
}

func runMigrations(ctx context.Context, db *sql.DB, prefix string, logger *slog.Logger) error {
	if err := os.Setenv(tablePrefixEnv, prefix); err != nil {
		return fmt.Errorf("set %s: %w", tablePrefixEnv, err)
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(prefix + "goose_db_version")
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("database migrations applied", "table_prefix", prefix)
	return nil
}
