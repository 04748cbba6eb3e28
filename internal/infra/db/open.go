// Package db opens the task store connection and applies its schema.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"gazette-tasks/internal/pkg/config"
)

// Dialect names the database/sql driver in use.
type Dialect string

const (
	DialectPostgres Dialect = "pgx"
	DialectSQLite   Dialect = "sqlite3"
)

// defaultSQLiteDSN is used when DB_DRIVER=sqlite3 and DATABASE_URL is empty.
const defaultSQLiteDSN = "file:gazette-tasks.db?_busy_timeout=5000"

// PoolConfig sizes the database/sql connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig suits a single API instance against Postgres.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

func positiveInt(v int) error { return config.ValidateIntRange(v, 1, 10000) }

// PoolConfigFromEnv reads DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME. Non-positive or
// unparsable values keep the default and are logged.
func PoolConfigFromEnv() PoolConfig {
	def := DefaultPoolConfig()
	var warnings []string
	keep := func(w []string) { warnings = append(warnings, w...) }

	openRes := config.LoadEnvInt("DB_MAX_OPEN_CONNS", def.MaxOpenConns, positiveInt)
	idleRes := config.LoadEnvInt("DB_MAX_IDLE_CONNS", def.MaxIdleConns, positiveInt)
	lifeRes := config.LoadEnvDuration("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime, config.ValidatePositiveDuration)
	idleTimeRes := config.LoadEnvDuration("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime, config.ValidatePositiveDuration)
	keep(openRes.Warnings)
	keep(idleRes.Warnings)
	keep(lifeRes.Warnings)
	keep(idleTimeRes.Warnings)

	for _, w := range warnings {
		slog.Warn("Configuration fallback applied", slog.String("warning", w))
	}
	return PoolConfig{
		MaxOpenConns:    openRes.Value,
		MaxIdleConns:    idleRes.Value,
		ConnMaxLifetime: lifeRes.Value,
		ConnMaxIdleTime: idleTimeRes.Value,
	}
}

// DialectFromEnv reads DB_DRIVER. Anything other than "sqlite3" selects Postgres.
func DialectFromEnv() Dialect {
	if config.GetEnvString("DB_DRIVER", "") == string(DialectSQLite) {
		return DialectSQLite
	}
	return DialectPostgres
}

// Open connects using DB_DRIVER and DATABASE_URL and pings within 5 seconds.
// Postgres requires DATABASE_URL; SQLite defaults to a local file.
func Open(ctx context.Context) (*sql.DB, Dialect, error) {
	dialect := DialectFromEnv()
	dsn := config.GetEnvString("DATABASE_URL", "")
	switch {
	case dsn != "":
	case dialect == DialectSQLite:
		dsn = defaultSQLiteDSN
	default:
		return nil, dialect, fmt.Errorf("Open: DATABASE_URL not set")
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, dialect, fmt.Errorf("Open: %s: %w", dialect, err)
	}

	pool := PoolConfigFromEnv()
	if dialect == DialectSQLite {
		// sqlite allows one writer; more connections only produce SQLITE_BUSY
		pool.MaxOpenConns, pool.MaxIdleConns = 1, 1
	}
	applyPool(db, pool)
	slog.Info("database pool configured",
		slog.String("driver", string(dialect)),
		slog.Int("max_open_conns", pool.MaxOpenConns),
		slog.Int("max_idle_conns", pool.MaxIdleConns),
		slog.Duration("conn_max_lifetime", pool.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", pool.ConnMaxIdleTime))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, dialect, fmt.Errorf("Open: ping: %w", err)
	}
	return db, dialect, nil
}

func applyPool(db *sql.DB, p PoolConfig) {
	db.SetMaxOpenConns(p.MaxOpenConns)
	db.SetMaxIdleConns(p.MaxIdleConns)
	db.SetConnMaxLifetime(p.ConnMaxLifetime)
	db.SetConnMaxIdleTime(p.ConnMaxIdleTime)
}
