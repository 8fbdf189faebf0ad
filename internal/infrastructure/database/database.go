package database

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/dsasheet/internal/infrastructure/config"
)

const pingTimeout = 5 * time.Second

// Open connects to the configured database and returns an ent SQL driver
// together with a cleanup func.
func Open(cfg *config.Config, logger logrus.FieldLogger) (*entsql.Driver, func(), error) {
	switch cfg.DatabaseDriver() {
	case "postgres":
		return openPostgres(cfg)
	case "pgx":
		return openPgxPool(cfg, logger)
	case "sqlite3":
		return openSQLite(cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// NewDriver opens the database and wraps the driver with SQL logging when
// database.log_sql is set.
func NewDriver(cfg *config.Config, logger logrus.FieldLogger) (dialect.Driver, func(), error) {
	drv, cleanup, err := Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Database.LogSQL {
		return drv, cleanup, nil
	}
	return dialect.DebugWithContext(drv, func(_ context.Context, args ...any) {
		logger.WithField("component", "sql").Debug(args...)
	}), cleanup, nil
}

func openPostgres(cfg *config.Config) (*entsql.Driver, func(), error) {
	rawDB, err := stdsql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres db: %w", err)
	}
	rawDB.SetMaxOpenConns(int(cfg.Database.MaxConns))
	if err := ping(rawDB); err != nil {
		rawDB.Close()
		return nil, nil, fmt.Errorf("ping postgres db: %w", err)
	}

	drv := entsql.OpenDB(dialect.Postgres, rawDB)
	return drv, func() { _ = drv.Close() }, nil
}

func openPgxPool(cfg *config.Config, logger logrus.FieldLogger) (*entsql.Driver, func(), error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("parse pool config: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	if cfg.Database.LogSQL {
		log := logger.WithField("component", "pgx")
		poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger: tracelog.LoggerFunc(func(_ context.Context, lvl tracelog.LogLevel, msg string, data map[string]any) {
				log.WithFields(logrus.Fields(data)).WithField("pgx_level", lvl.String()).Debug(msg)
			}),
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}

	rawDB := stdlib.OpenDBFromPool(pool)
	drv := entsql.OpenDB(dialect.Postgres, rawDB)
	return drv, func() {
		_ = drv.Close()
		pool.Close()
	}, nil
}

func openSQLite(cfg *config.Config) (*entsql.Driver, func(), error) {
	rawDB, err := stdsql.Open("sqlite3", cfg.DatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite db: %w", err)
	}
	drv, err := PrepareSQLite(rawDB)
	if err != nil {
		rawDB.Close()
		return nil, nil, err
	}
	return drv, func() { _ = drv.Close() }, nil
}

// PrepareSQLite limits rawDB to one connection, enables foreign keys and
// wraps it in an ent driver.
func PrepareSQLite(rawDB *stdsql.DB) (*entsql.Driver, error) {
	rawDB.SetMaxOpenConns(1)
	rawDB.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rawDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := rawDB.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	return entsql.OpenDB(dialect.SQLite, rawDB), nil
}

func ping(db *stdsql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return db.PingContext(ctx)
}
