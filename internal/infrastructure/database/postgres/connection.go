// Package postgres provides the PostgreSQL connection pool, transaction
// helper, and repository implementations backing the engine's relational
// cache tier (§5): the `ingredient` table (IngredientRecord, §3) and the
// `external_source_log` audit table (§6). The pool is created once at
// application startup and injected into the repositories.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mommyshops/irae/internal/config"
	"github.com/mommyshops/irae/internal/platform/logging"
)

const (
	maxRetries        = 5
	initialRetryDelay = 1 * time.Second

	defaultHealthCheckPeriod = time.Minute
)

// NewConnectionPool creates and initializes a pgxpool.Pool with exponential
// backoff retry logic (five attempts, waiting 1s, 2s, 4s, 8s between them). The
// returned pool must be closed by the caller via Close() on shutdown.
func NewConnectionPool(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*pgxpool.Pool, error) {
	connString := buildConnString(cfg)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse connection string: %w", err)
	}
	configurePool(poolConfig, cfg)

	var pool *pgxpool.Pool
	retryDelay := initialRetryDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Info("attempting database connection",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", maxRetries),
			logging.String("host", cfg.Host),
			logging.Int("port", cfg.Port),
			logging.String("db_name", cfg.DBName),
		)

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err = pgxpool.NewWithConfig(connectCtx, poolConfig)
		cancel()

		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			err = pool.Ping(pingCtx)
			pingCancel()

			if err == nil {
				log.Info("database connection established",
					logging.String("host", cfg.Host),
					logging.Int("port", cfg.Port),
					logging.String("db_name", cfg.DBName),
				)
				return pool, nil
			}
			pool.Close()
			log.Warn("database ping failed", logging.Int("attempt", attempt), logging.Err(err))
		} else {
			log.Warn("failed to create connection pool", logging.Int("attempt", attempt), logging.Err(err))
		}

		if attempt == maxRetries {
			return nil, fmt.Errorf("postgres: failed to connect after %d attempts: %w", maxRetries, err)
		}
		log.Info("retrying database connection", logging.Duration("delay", retryDelay))
		time.Sleep(retryDelay)
		retryDelay *= 2
	}
	return nil, fmt.Errorf("postgres: connection retry logic exhausted")
}

// Close gracefully shuts down the connection pool. The pool must not be used
// after calling Close.
func Close(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}

// HealthCheck executes a lightweight `SELECT 1` query to verify that the
// primary store is reachable, feeding Op3's store_reachable signal (§6).
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("postgres: connection pool is nil")
	}
	var result int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("postgres: health check query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("postgres: health check returned unexpected value: %d", result)
	}
	return nil
}

func buildConnString(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode,
	)
}

func configurePool(poolConfig *pgxpool.Config, cfg config.DatabaseConfig) {
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	poolConfig.HealthCheckPeriod = defaultHealthCheckPeriod
}

// WithTransaction executes fn within a database transaction, rolling back on
// error or panic and committing otherwise.
func WithTransaction(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) (err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
			}
		} else if cmtErr := tx.Commit(ctx); cmtErr != nil {
			err = fmt.Errorf("postgres: commit failed: %w", cmtErr)
		}
	}()
	err = fn(tx)
	return err
}
