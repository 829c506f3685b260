// Package db opens the pooled connection to the backing time-series store.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config is the connection configuration for the store. The pool keeps at
// least MinConnections idle and never opens more than MaxConnections;
// callers needing a connection beyond the ceiling block until one is
// released.
type Config struct {
	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	MinConnections int
	MaxConnections int
}

// LoadConfig reads the connection configuration from environment variables.
// Defaults: localhost:5432, database trading_data, user trading_writer,
// empty password, pool bounds [1, 10].
func LoadConfig() Config {
	return Config{
		Host:           envOr("DB_HOST", "localhost"),
		Port:           envIntOr("DB_PORT", 5432),
		Database:       envOr("DB_NAME", "trading_data"),
		User:           envOr("DB_USER", "trading_writer"),
		Password:       os.Getenv("DB_PASSWORD"),
		MinConnections: envIntOr("DB_MIN_CONNS", 1),
		MaxConnections: envIntOr("DB_MAX_CONNS", 10),
	}
}

// Open connects to the store with a bounded connection pool and returns a
// gorm handle over it. It retries for up to a minute before giving up, since
// the database may still be starting alongside this process.
func Open(cfg Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)

	pgxCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	sqlDB := stdlib.OpenDB(*pgxCfg)
	sqlDB.SetMaxIdleConns(cfg.MinConnections)
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := pingWithRetry(sqlDB, 60*time.Second); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	slog.Info("database connection pool initialized",
		"host", cfg.Host, "port", cfg.Port, "database", cfg.Database,
		"min_connections", cfg.MinConnections, "max_connections", cfg.MaxConnections)
	return gdb, nil
}

func pingWithRetry(sqlDB *sql.DB, patience time.Duration) error {
	deadline := time.Now().Add(patience)
	for {
		err := sqlDB.Ping()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("database unreachable after %s: %w", patience, err)
		}
		slog.Warn("database connect failed, retrying", "error", err)
		time.Sleep(3 * time.Second)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return n
}
