// Package postgres opens the storefront database pool.
package postgres

import (
	"fmt"

	"github.com/Semzy1/Log-In-page-main/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// New opens the order/payment database and verifies connectivity. Pool
// limits come from config; checkout runs one transaction per request, so
// MaxOpenConns bounds concurrent checkouts.
func New(cfg config.Postgres) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

func dsn(cfg config.Postgres) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
}
