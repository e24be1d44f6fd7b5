package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	repo "github.com/joseph-ayodele/voter-roll-extractor/internal/repository"
)

// ConnectDB opens the job store described by cfg and applies the schema.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := repo.Open(ctx, repo.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to apply schema", "error", err)
		db.Close(logger)
		return nil, err
	}
	return db, nil
}

// OpenJobStore is ConnectDB for command-line tools: inmem swaps the configured
// store for a throwaway in-memory SQLite database.
func OpenJobStore(ctx context.Context, cfg common.DatabaseConfig, inmem bool, logger *slog.Logger) (*repo.DB, error) {
	if inmem {
		cfg.Driver = repo.DriverSQLite
		cfg.DSN = "file::memory:"
	}
	return ConnectDB(ctx, cfg, logger)
}

// PingDB returns a health probe bound to db.
func PingDB(db *repo.DB, logger *slog.Logger, timeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return db.HealthCheck(ctx, timeout, logger)
	}
}
