// Package persistence opens the account database through the
// go-persistence-bun client and applies the embedded goose migrations.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goliatone/go-account"
	bunpersistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config describes the connection. GetServer returns the DSN.
type Config interface {
	GetDebug() bool
	GetDriver() string
	GetServer() string
	GetPingTimeout() time.Duration
	GetOtelIdentifier() string
}

func init() {
	bunpersistence.RegisterModel((*account.User)(nil))
	bunpersistence.RegisterModel((*account.Profile)(nil))
}

// Open connects to the database described by cfg. The bun handle is
// client.DB().
func Open(cfg Config) (*bunpersistence.Client, error) {
	sqldb, dia, err := openSQL(cfg.GetDriver(), cfg.GetServer())
	if err != nil {
		return nil, err
	}

	client, err := bunpersistence.New(cfg, sqldb, dia)
	if err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("create persistence client: %w", err)
	}

	if dia.Name() == dialect.SQLite {
		if _, err := client.DB().Exec("PRAGMA foreign_keys = ON;"); err != nil {
			_ = client.DB().Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}

	return client, nil
}

func openSQL(driver, dsn string) (*sql.DB, schema.Dialect, error) {
	switch driver {
	case DriverSQLite, "":
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		// pragmas are per connection
		sqldb.SetMaxOpenConns(1)
		return sqldb, sqlitedialect.New(), nil
	case DriverPostgres:
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return sqldb, pgdialect.New(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies every pending migration to db
func Migrate(ctx context.Context, db *bun.DB) error {
	gooseDialect, err := gooseDialectFor(db.Dialect().Name())
	if err != nil {
		return err
	}

	goose.SetBaseFS(account.GetMigrationsFS())
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := gooseUpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func gooseDialectFor(name dialect.Name) (string, error) {
	switch name {
	case dialect.SQLite:
		return "sqlite3", nil
	case dialect.PG:
		return "postgres", nil
	default:
		return "", fmt.Errorf("no migrations for dialect %s", name)
	}
}
