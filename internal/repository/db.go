package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver           string // DriverSQLite (default) | DriverPostgres
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB bundles the database handle with the ent SQL driver used to run built queries.
type DB struct {
	SQL     *sql.DB
	Driver  *entsql.Driver
	Dialect string
	pool    *pgxpool.Pool
}

// Open connects to the configured database. Postgres goes through a pgx pool
// wrapped as *sql.DB; SQLite uses the pure-Go modernc driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		return openSQLite(ctx, cfg, logger)
	case DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
}

func openSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = "file:voterroll.db?_pragma=busy_timeout(5000)"
	}
	logger.Info("opening sqlite database", "dsn", dsn)
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		logger.Error("failed to open sqlite database", "error", err)
		return nil, err
	}
	// one writer; also keeps a ":memory:" database alive across calls
	db.SetMaxOpenConns(1)
	if cfg.MaxConnLifetime > 0 && !strings.Contains(dsn, ":memory:") {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
	if err := pingTimeout(ctx, db, cfg.DialTimeout); err != nil {
		_ = db.Close()
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	logger.Info("successfully connected to database", "driver", DriverSQLite)
	return &DB{SQL: db, Driver: entsql.OpenDB(dialect.SQLite, db), Dialect: dialect.SQLite}, nil
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", DriverPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "voter-roll-extractor"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database", "driver", DriverPostgres)
	return &DB{SQL: db, Driver: entsql.OpenDB(dialect.Postgres, db), Dialect: dialect.Postgres, pool: pool}, nil
}

// Close closes the database connections gracefully
func (d *DB) Close(logger *slog.Logger) {
	if d == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if err := d.SQL.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging database", "dialect", d.Dialect)
	var err error
	if d.pool != nil {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		err = d.pool.Ping(ctx)
	} else {
		err = pingTimeout(ctx, d.SQL, timeout)
	}
	if err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

func pingTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}

// Timestamps are RFC3339 text and flags are integers so one schema serves both dialects.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS extract_job (
		id             TEXT PRIMARY KEY,
		source_path    TEXT NOT NULL,
		content_hash   TEXT NOT NULL DEFAULT '',
		format         TEXT NOT NULL,
		force_ocr      INTEGER NOT NULL DEFAULT 0,
		dpi            INTEGER NOT NULL DEFAULT 0,
		status         TEXT NOT NULL,
		started_at     TEXT NOT NULL,
		finished_at    TEXT,
		pages          INTEGER NOT NULL DEFAULT 0,
		page_methods   TEXT NOT NULL DEFAULT '',
		record_count   INTEGER NOT NULL DEFAULT 0,
		migrated_count INTEGER NOT NULL DEFAULT 0,
		error_message  TEXT,
		ocr_text       TEXT,
		extracted_json TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS extract_job_content_hash_idx ON extract_job (content_hash)`,
	`CREATE INDEX IF NOT EXISTS extract_job_started_at_idx ON extract_job (started_at)`,
}

// Migrate creates the job table when missing.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
